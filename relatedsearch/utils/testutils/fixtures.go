package testutils

import (
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/schema"
)

// NewCarRegistry declares the catalog used across package tests:
// a car belongs to a vehicle made by a manufacturer, has comments, tags and one registration.
func NewCarRegistry() *schema.Registry {
	car := schema.NewModel("Car", "cars").
		WithColumns("id", "name", "qty", "vehicle_id").
		BelongsTo("vehicle", "Vehicle", "vehicle_id").
		HasMany("comments", "Comment", "car_id").
		HasOne("registration", "Registration", "car_id").
		ManyMany("tags", "Tag", "car_tags", "car_id", "tag_id").
		WithField("make", "vehicle.manufacturer.name").
		WithField("model", "vehicle.name").
		WithFieldSpec("qty", schema.Field{Field: "qty"}.Exact()).
		WithField("comment", "comments.body").
		WithFieldSpec("country", schema.Field{Field: "vehicle.manufacturer.country", Value: "vehicle.manufacturer.name"}).
		WithLabel("make", "Manufacturer").
		WithSafe("search", "make", "model", "qty", "comment", "country", "name")
	vehicle := schema.NewModel("Vehicle", "vehicles").
		WithColumns("id", "name", "manufacturer_id").
		AddRelation(schema.Relation{
			Name: "manufacturer", Kind: schema.BelongsTo, Target: "Manufacturer",
			ForeignKey: "manufacturer_id", Alias: "vehicle_manufacturer",
		})
	manufacturer := schema.NewModel("Manufacturer", "manufacturers").
		WithColumns("id", "name", "country")
	comment := schema.NewModel("Comment", "comments").
		WithColumns("id", "car_id", "body")
	tag := schema.NewModel("Tag", "tags").
		WithColumns("id", "name")
	registration := schema.NewModel("Registration", "registrations").
		WithColumns("id", "car_id", "plate")
	return schema.NewRegistry(car, vehicle, manufacturer, comment, tag, registration)
}

// CarSchema creates and fills the tables of NewCarRegistry.
var CarSchema = []string{
	`CREATE TABLE manufacturers (id INTEGER PRIMARY KEY, name TEXT, country TEXT)`,
	`CREATE TABLE vehicles (id INTEGER PRIMARY KEY, name TEXT, manufacturer_id INTEGER)`,
	`CREATE TABLE cars (id INTEGER PRIMARY KEY, name TEXT, qty INTEGER, vehicle_id INTEGER)`,
	`CREATE TABLE comments (id INTEGER PRIMARY KEY, car_id INTEGER, body TEXT)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE car_tags (car_id INTEGER, tag_id INTEGER)`,
	`CREATE TABLE registrations (id INTEGER PRIMARY KEY, car_id INTEGER, plate TEXT)`,

	`INSERT INTO manufacturers (id, name, country) VALUES (1, 'Acme', 'US'), (2, 'Globex', 'DE')`,
	`INSERT INTO vehicles (id, name, manufacturer_id) VALUES (10, 'Roadster', 1), (11, 'Hauler', 2), (12, 'Scooter', 1)`,
	`INSERT INTO cars (id, name, qty, vehicle_id) VALUES
		(1, 'red roadster', 5, 10),
		(2, 'blue hauler', 3, 11),
		(3, 'green scooter', 5, 12),
		(4, 'grey roadster', 1, 10)`,
	`INSERT INTO comments (id, car_id, body) VALUES (101, 1, 'fast'), (102, 1, 'loud'), (103, 3, 'tiny')`,
	`INSERT INTO tags (id, name) VALUES (1, 'sport'), (2, 'cargo')`,
	`INSERT INTO car_tags (car_id, tag_id) VALUES (1, 1), (2, 2), (4, 1), (4, 2)`,
	`INSERT INTO registrations (id, car_id, plate) VALUES (1, 1, 'AC-001'), (2, 2, 'GX-002')`,
}
