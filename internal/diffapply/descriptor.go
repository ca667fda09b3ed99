package diffapply

import (
	"encoding/json"
	"fmt"
	"strconv"

	"prato/internal/domain/restaurants"
)

// setter writes one coerced value into the staged entity. A returned
// error aborts the whole diff.
type setter func(r *restaurants.Restaurant, v any) error

// fieldTable is the closed set of editable fields. Names not present here
// are skipped silently so payloads from newer clients degrade gracefully
// instead of failing the batch. numberOfDishes and distance are derived on
// the read side and deliberately no-ops.
var fieldTable = map[string]setter{
	"name":     func(r *restaurants.Restaurant, v any) error { return setString(&r.Name, v) },
	"address":  func(r *restaurants.Restaurant, v any) error { return setString(&r.Address, v) },
	"city":     func(r *restaurants.Restaurant, v any) error { return setString(&r.City, v) },
	"district": func(r *restaurants.Restaurant, v any) error { return setString(&r.District, v) },
	"priceRange": func(r *restaurants.Restaurant, v any) error {
		return setString(&r.PriceRange, v)
	},
	"foodType": func(r *restaurants.Restaurant, v any) error { return setString(&r.FoodType, v) },

	"menuPrice": func(r *restaurants.Restaurant, v any) error {
		return setNullableFloat(&r.MenuPrice, v)
	},
	"googleRating": func(r *restaurants.Restaurant, v any) error {
		return setNullableFloat(&r.GoogleRating, v)
	},
	"googleReviews": func(r *restaurants.Restaurant, v any) error {
		return setNullableInt(&r.GoogleReviews, v)
	},

	"description": func(r *restaurants.Restaurant, v any) error {
		return setNullableString(&r.Description, v)
	},
	"restaurantPhoto": func(r *restaurants.Restaurant, v any) error {
		return setNullableString(&r.RestaurantPhoto, v)
	},
	"menuPhoto": func(r *restaurants.Restaurant, v any) error {
		return setNullableString(&r.MenuPhoto, v)
	},

	"dishes": func(r *restaurants.Restaurant, v any) error {
		r.Dishes = toStringList(v)
		return nil
	},
	"whatsIncluded": func(r *restaurants.Restaurant, v any) error {
		r.WhatsIncluded = toStringList(v)
		return nil
	},
	"photos": func(r *restaurants.Restaurant, v any) error {
		r.Photos = toStringList(v)
		return nil
	},

	"cardsAccepted": func(r *restaurants.Restaurant, v any) error {
		r.CardsAccepted = truthy(v)
		return nil
	},
	"quickService": func(r *restaurants.Restaurant, v any) error {
		r.QuickService = truthy(v)
		return nil
	},
	"groupFriendly": func(r *restaurants.Restaurant, v any) error {
		r.GroupFriendly = truthy(v)
		return nil
	},
	"parking": func(r *restaurants.Restaurant, v any) error {
		r.Parking = truthy(v)
		return nil
	},

	"numberOfDishes": func(r *restaurants.Restaurant, v any) error { return nil },
	"distance":       func(r *restaurants.Restaurant, v any) error { return nil },
}

func setString(dst *string, v any) error {
	s, err := asString(v)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func setNullableString(dst **string, v any) error {
	if v == nil {
		*dst = nil
		return nil
	}
	s, err := asString(v)
	if err != nil {
		return err
	}
	*dst = &s
	return nil
}

func setNullableFloat(dst **float64, v any) error {
	if v == nil || v == "" {
		*dst = nil
		return nil
	}
	f, err := asFloat(v)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

func setNullableInt(dst **int64, v any) error {
	if v == nil || v == "" {
		*dst = nil
		return nil
	}
	f, err := asFloat(v)
	if err != nil {
		return err
	}
	n := int64(f)
	*dst = &n
	return nil
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// toStringList never errors: a non-sequence proposed value resets the
// list rather than leaving it stale. Scalar elements are stringified.
func toStringList(v any) []string {
	seq, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(seq))
	for _, el := range seq {
		switch s := el.(type) {
		case string:
			out = append(out, s)
		case json.Number:
			out = append(out, s.String())
		case bool:
			out = append(out, strconv.FormatBool(s))
		case nil:
			out = append(out, "")
		default:
			out = append(out, fmt.Sprintf("%v", el))
		}
	}
	return out
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case float64:
		return b != 0
	case []any:
		return len(b) > 0
	case map[string]any:
		return len(b) > 0
	case nil:
		return false
	default:
		return true
	}
}
