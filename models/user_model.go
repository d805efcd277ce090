package models

type User struct {
	ID                    string    `json:"id" bson:"_id"`
	Email                 string    `json:"email" bson:"email"`
	Name                  string    `json:"name" bson:"name"`
	AccessToken           string    `json:"-" bson:"access_token"`
	Description           *string   `json:"description,omitempty" bson:"description,omitempty"`
	DescriptionEmbeddings []float64 `json:"-" bson:"description_embeddings,omitempty"`
	Location              *GeoPoint `json:"location,omitempty" bson:"location,omitempty"`
	Matches               []Match   `json:"matches" bson:"matches"`
	// Version is bumped by the store on every successful write. Zero means the
	// record has never been stored.
	Version int64 `json:"-" bson:"version"`
}

// Match returns the caller's entry for the given counterpart, or nil.
// The returned pointer aliases the Matches backing array, so writes through it
// are visible in u.
func (u User) Match(counterpartID string) *Match {
	for i := range u.Matches {
		if u.Matches[i].ID == counterpartID {
			return &u.Matches[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without touching a cached record.
func (u User) Clone() User {
	c := u
	if u.Description != nil {
		d := *u.Description
		c.Description = &d
	}
	if u.DescriptionEmbeddings != nil {
		c.DescriptionEmbeddings = append([]float64(nil), u.DescriptionEmbeddings...)
	}
	if u.Location != nil {
		loc := GeoPoint{Type: u.Location.Type, Coordinates: append([]float64(nil), u.Location.Coordinates...)}
		c.Location = &loc
	}
	c.Matches = append([]Match(nil), u.Matches...)
	return c
}

// UserProjection is the denormalized, searchable view of a user kept in the
// search index. It never carries credentials or matches.
type UserProjection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Embeddings  []float64 `json:"description_embeddings,omitempty"`
	Location    *GeoPoint `json:"location,omitempty"`
}

func (u User) Projection() UserProjection {
	return UserProjection{
		ID:          u.ID,
		Name:        u.Name,
		Description: u.Description,
		Embeddings:  u.DescriptionEmbeddings,
		Location:    u.Location,
	}
}
