package models

type FuelType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;unique" json:"name"`
}

var DefaultFuelTypes = []string{"Petrol", "Diesel", "Hybrid", "Electric", "LPG"}
