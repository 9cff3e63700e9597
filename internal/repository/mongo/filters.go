package mongo

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/trainer-discovery-api/internal/models"
)

// trainerFilter translates the remotely evaluable predicates into a query document.
func trainerFilter(q models.TrainerPageQuery) bson.M {
	filter := bson.M{}
	if q.HasCategory() {
		filter["specialty"] = q.Category
	}
	if q.OnlineOnly {
		filter["is_online"] = true
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"full_name": pattern},
			bson.M{"location": pattern},
		}
	}
	return filter
}

// trainerSort maps a sort key onto a sort document. Rating is not stored on trainers, so recency
// stands in and the caller re-sorts.
func trainerSort(key models.SortKey) bson.D {
	switch key {
	case models.SortName:
		return bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortExperience:
		return bson.D{{Key: "experience_years", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func byTrainerIDs(ids []string) bson.M {
	return bson.M{"trainer_id": bson.M{"$in": ids}}
}
