package model

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"library-backend/internal/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

// CreateRequest answers a waiting notification with pickup details.
// Coordinates are pointers so that 0 is accepted while a missing field is not.
type CreateRequest struct {
	NotificationID uuid.UUID  `json:"notification_id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	PhoneNumber    string     `json:"phone_number"`
	PreferredDate  *time.Time `json:"preferred_date"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
}

// UnmarshalJSON takes preferred_date as RFC 3339 or YYYY-MM-DD.
func (r *CreateRequest) UnmarshalJSON(data []byte) error {
	type alias CreateRequest
	var raw struct {
		alias
		PreferredDate *string `json:"preferred_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	preferred, err := shared.OptionalDateTime(raw.PreferredDate, false)
	if err != nil {
		return err
	}
	*r = CreateRequest(raw.alias)
	r.PreferredDate = preferred
	return nil
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NotificationID, validation.By(notNilUUID)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.Match(phonePattern).Error("must be a phone number")),
		validation.Field(&r.PreferredDate, validation.Required),
		validation.Field(&r.Latitude, validation.NotNil, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.NotNil, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// uuid.UUID is an array, which validation.Required never treats as empty.
func notNilUUID(v interface{}) error {
	if id, _ := v.(uuid.UUID); id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}
