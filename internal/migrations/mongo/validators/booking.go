package validators

import "go.mongodb.org/mongo-driver/bson"

var hhmmPattern = `^([01][0-9]|2[0-3]):[0-5][0-9]$`

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user",
			"room",
			"date",
			"startTime",
			"endTime",
			"status",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user": bson.M{
				"bsonType": "object",
				"required": []string{"id"},
				"properties": bson.M{
					"id":      bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
					"name":    bson.M{"bsonType": "string"},
					"surname": bson.M{"bsonType": "string"},
					"email":   bson.M{"bsonType": "string"},
					"role":    bson.M{"bsonType": "string"},
				},
			},

			"room": bson.M{
				"bsonType": "objectId",
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"startTime": bson.M{
				"bsonType": "string",
				"pattern":  hhmmPattern,
			},

			"endTime": bson.M{
				"bsonType": "string",
				"pattern":  hhmmPattern,
			},

			"purpose": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"Accepted",
					"Declined",
				},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "token", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"token":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var BookingHistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "event_type", "event", "recorded_at"},
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "string"},
			"event_type":  bson.M{"bsonType": "string"},
			"source":      bson.M{"bsonType": "string"},
			"event":       bson.M{"bsonType": "object"},
			"recorded_at": bson.M{"bsonType": "date"},
		},
	},
}
