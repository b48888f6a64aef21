package item

import (
	"github.com/goccy/go-json"

	"github.com/iliyamo/cinema-reconciler/internal/model"
)

// ParseEnvelope decodes a queue or HTTP message body.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, malformed("", err)
	}
	if !env.Type.Valid() {
		return env, &ValidationError{Kind: env.Type, Fields: []FieldError{{Field: "type", Reason: "unknown item type"}}}
	}
	if len(env.Data) == 0 {
		return env, &ValidationError{Kind: env.Type, Fields: []FieldError{{Field: "data", Reason: "required"}}}
	}
	return env, nil
}

func malformed(kind Kind, err error) error {
	return &ValidationError{Kind: kind, Fields: []FieldError{{Reason: "malformed JSON: " + err.Error()}}}
}

// DecodeCinema decodes and validates a cinema record.
func DecodeCinema(data []byte) (*model.Cinema, error) {
	var in Cinema
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, malformed(KindCinema, err)
	}
	return BuildCinema(in)
}

// DecodeMovie decodes and validates a movie record.
func DecodeMovie(data []byte) (*model.Movie, error) {
	var in Movie
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, malformed(KindMovie, err)
	}
	return BuildMovie(in)
}

// DecodeShowing decodes and validates a showing record.
func DecodeShowing(data []byte) (*model.Showing, error) {
	var in Showing
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, malformed(KindShowing, err)
	}
	return BuildShowing(in)
}

// DecodeShowingBooking decodes and validates a booking snapshot.
func DecodeShowingBooking(data []byte) (*model.ShowingBooking, error) {
	var in ShowingBooking
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, malformed(KindShowingBooking, err)
	}
	return BuildShowingBooking(in)
}

// DecodeDBManage decodes and validates an admin request.
func DecodeDBManage(data []byte) (DBManage, error) {
	var in DBManage
	if err := json.Unmarshal(data, &in); err != nil {
		return in, malformed(KindDBManage, err)
	}
	return BuildDBManage(in)
}
