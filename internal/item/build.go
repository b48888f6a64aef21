package item

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinema-reconciler/internal/model"
	"github.com/iliyamo/cinema-reconciler/internal/normalize"
)

// ErrInvalid is the sentinel every *ValidationError unwraps to.
var ErrInvalid = errors.New("invalid item")

// FieldError names one rejected field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports why a record was rejected.  Key is whatever part
// of the business key could be read, to help locate the offending record.
type ValidationError struct {
	Kind   Kind         `json:"kind"`
	Key    string       `json:"key,omitempty"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	msg := fmt.Sprintf("invalid %s item", e.Kind)
	if e.Key != "" {
		msg += " [" + e.Key + "]"
	}
	return msg + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct-tag validation and collects failures into ve.
func check(ve *ValidationError, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve.add("", err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		ve.add(field, reason)
	}
}

// parseTime accepts RFC 3339 timestamps and stores them in UTC at second
// precision so equal instants compare equal in every database.
func parseTime(ve *ValidationError, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		ve.add(field, "not an ISO-8601 time with zone")
		return time.Time{}
	}
	return t.UTC().Truncate(time.Second)
}

// BuildCinema validates a cinema record.  Names and screen labels are
// normalized; counts missing from the record are derived from its screens.
func BuildCinema(in Cinema) (*model.Cinema, error) {
	ve := &ValidationError{Kind: KindCinema}
	check(ve, in)

	c := &model.Cinema{
		Names:       normalize.Names(in.Names),
		County:      normalize.Width(in.County),
		Company:     normalize.Width(in.Company),
		Site:        strings.TrimSpace(in.Site),
		Screens:     make(map[string]int, len(in.Screens)),
		ScreenCount: in.ScreenCount,
		TotalSeats:  in.TotalSeats,
		Source:      strings.TrimSpace(in.Source),
	}
	if len(in.Names) > 0 && len(c.Names) == 0 {
		ve.add("names", "required")
	}
	for label, seats := range in.Screens {
		key := normalize.Name(label)
		if key == "" {
			continue
		}
		c.Screens[key] = int(seats)
	}
	if c.ScreenCount == 0 || c.TotalSeats == 0 {
		derived := c.Clone()
		derived.Recount()
		if c.ScreenCount == 0 {
			c.ScreenCount = derived.ScreenCount
		}
		if c.TotalSeats == 0 {
			c.TotalSeats = derived.TotalSeats
		}
	}
	ve.Key = c.Key()
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildMovie validates a movie record.
func BuildMovie(in Movie) (*model.Movie, error) {
	ve := &ValidationError{Kind: KindMovie}
	check(ve, in)
	m := &model.Movie{
		Title:              normalize.Width(in.Title),
		CurrentCinemaCount: in.CurrentCinemaCount,
	}
	if in.Title != "" && m.Title == "" {
		ve.add("title", "required")
	}
	ve.Key = m.Title
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	return m, nil
}

// BuildShowing validates a showing record.
func BuildShowing(in Showing) (*model.Showing, error) {
	ve := &ValidationError{Kind: KindShowing}
	check(ve, in)
	s := buildShowing(ve, "", in)
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildShowing(ve *ValidationError, prefix string, in Showing) *model.Showing {
	s := &model.Showing{
		Title:          normalize.Width(in.Title),
		TitleEn:        normalize.Width(in.TitleEn),
		RealTitle:      normalize.Width(in.RealTitle),
		StartTime:      parseTime(ve, prefix+"start_time", in.StartTime),
		EndTime:        parseTime(ve, prefix+"end_time", in.EndTime),
		CinemaName:     normalize.Name(in.CinemaName),
		CinemaSite:     strings.TrimSpace(in.CinemaSite),
		Screen:         normalize.Name(in.Screen),
		SeatType:       model.SeatType(strings.TrimSpace(in.SeatType)),
		TotalSeatCount: in.TotalSeatCount,
		Source:         strings.TrimSpace(in.Source),
	}
	if s.SeatType == "" {
		s.SeatType = model.SeatTypeNormal
	}
	if !s.StartTime.IsZero() && !s.EndTime.IsZero() && s.EndTime.Before(s.StartTime) {
		ve.add(prefix+"end_time", "before start_time")
	}
	if ve.Key == "" {
		ve.Key = s.Key()
	}
	return s
}

// BuildShowingBooking validates a booking snapshot and its showing.
func BuildShowingBooking(in ShowingBooking) (*model.ShowingBooking, error) {
	ve := &ValidationError{Kind: KindShowingBooking}
	check(ve, in)
	b := &model.ShowingBooking{
		BookStatus:    model.BookStatus(strings.TrimSpace(in.BookStatus)),
		BookSeatCount: in.BookSeatCount,
		MinutesBefore: in.MinutesBefore,
		RecordTime:    parseTime(ve, "record_time", in.RecordTime),
	}
	if in.Showing != nil {
		b.Showing = buildShowing(ve, "showing.", *in.Showing)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	return b, nil
}

// BuildDBManage validates an admin request.
func BuildDBManage(in DBManage) (DBManage, error) {
	ve := &ValidationError{Kind: KindDBManage, Key: in.Target}
	check(ve, in)
	return in, ve.orNil()
}
