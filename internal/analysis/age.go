package analysis

import (
	"time"

	"github.com/pmorales/jiratools/internal/models"
)

// AgeBucket classifies an issue's age in whole days. Boundaries are
// inclusive at the top of each bucket: 7 days is still "0-7_days".
type AgeBucket string

const (
	Bucket0To7    AgeBucket = "0-7_days"
	Bucket8To30   AgeBucket = "8-30_days"
	Bucket31To90  AgeBucket = "31-90_days"
	Bucket91To180 AgeBucket = "91-180_days"
	BucketOver180 AgeBucket = "180+_days"
)

// AgeBuckets lists the buckets in ascending order for deterministic display.
var AgeBuckets = []AgeBucket{Bucket0To7, Bucket8To30, Bucket31To90, Bucket91To180, BucketOver180}

// AgeDays returns the issue's age in whole days at the given instant.
// The comparison happens in the created timestamp's own location so a
// caller-supplied "now" in a different zone cannot skew the day count.
func AgeDays(issue models.Issue, now time.Time) int {
	age := now.In(issue.Created.Location()).Sub(issue.Created)
	days := int(age.Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// BucketFor maps an age in days to its bucket.
func BucketFor(days int) AgeBucket {
	switch {
	case days <= 7:
		return Bucket0To7
	case days <= 30:
		return Bucket8To30
	case days <= 90:
		return Bucket31To90
	case days <= 180:
		return Bucket91To180
	default:
		return BucketOver180
	}
}
