package models

type Tag struct {
	ID   uint
	Name string
}
