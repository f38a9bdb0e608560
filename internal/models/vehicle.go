package models

type VehicleType struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// VehicleTypes is the full list accepted on a booking.
var VehicleTypes = []VehicleType{
	{"2_wheeler", "2 Wheeler"},
	{"3_wheeler", "3 Wheeler"},
	{"4_wheeler", "4 Wheeler"},
	{"single_axle", "Single Axle"},
	{"double_axle", "Double Axle"},
	{"car", "Car"},
	{"truck", "Truck"},
	{"bus", "Bus"},
	{"van", "Van"},
	{"suv", "SUV"},
	{"other", "Other"},
}

// PlaceVehicleTypes is the subset an owner can allow on a place.
var PlaceVehicleTypes = []string{"2_wheeler", "3_wheeler", "4_wheeler", "single_axle", "double_axle"}

func VehicleLabel(code string) string {
	for _, v := range VehicleTypes {
		if v.Code == code {
			return v.Label
		}
	}
	return code
}

func IsVehicleType(code string) bool {
	for _, v := range VehicleTypes {
		if v.Code == code {
			return true
		}
	}
	return false
}
