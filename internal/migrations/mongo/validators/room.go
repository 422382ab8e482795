package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "type", "location", "capacity", "createdAt"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":  bson.M{"bsonType": "objectId"},
			"name": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Study Room",
					"Conference Room",
					"Lecture Hall",
					"Lab Room",
					"Student Centre",
				},
			},
			"location":  bson.M{"bsonType": "string", "maxLength": 200},
			"capacity":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			"createdAt": bson.M{"bsonType": "date"},
			"updatedAt": bson.M{"bsonType": "date"},
		},
	},
}

// UserValidator only checks the fields bookings read. Users are written by
// the account service.
var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"email", "role"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "objectId"},
			"firstName": bson.M{"bsonType": "string"},
			"lastName":  bson.M{"bsonType": "string"},
			"email":     bson.M{"bsonType": "string"},
			"role":      bson.M{"bsonType": "string"},
		},
	},
}
