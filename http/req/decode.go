package req

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gorilla/schema"

	"github.com/cairnhq/cairn"
)

// queryParamDecoder wraps a *schema.Decoder,
// translating the errors it returns into standardized ones.
type queryParamDecoder struct {
	dec *schema.Decoder
}

func newQueryParamDecoder() queryParamDecoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	return queryParamDecoder{dec}
}

func (q queryParamDecoder) decode(structPtr any, params url.Values) error {
	v := reflect.ValueOf(structPtr)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: ParseQueryParams called with non-pointer: %T", cairn.ErrBadAny, structPtr)
	}

	if err := q.dec.Decode(structPtr, params); err != nil {
		return translateDecoderError(err)
	}

	return nil
}

// translateDecoderError converts an error returned by *schema.Decoder into standardized errors.
// Some *schema.Decoder errors are issues with calling code;
// some errors are unexpected issues;
// still some are issues with mismatches between a request's query params and the expected shape.
func translateDecoderError(err error) error {
	var pkgErrs schema.MultiError
	// NOTE(tmk): outside the errors handled in decode, the schema package
	// wraps everything it returns in a MultiError. This is the "happy path".
	if !errors.As(err, &pkgErrs) {
		// NOTE(tmk): calling everything not handled above an ErrBadFormat
		// could be misleading, but these have not shown up in the wild yet.
		return fmt.Errorf("%w: %s", cairn.ErrBadFormat, err)
	}

	var validErrs ValidationErrors
	for _, pkgErr := range pkgErrs {
		switch err := pkgErr.(type) {
		case schema.ConversionError:
			ve := ValidationError{
				Field: err.Key,
				// NOTE(tmk): for non-slice values, err.Index is -1.
				Got:  fmt.Sprintf("bad value at index %d", max(0, err.Index)),
				Rule: "must be " + err.Type.String(),
			}

			validErrs = append(validErrs, ve)

		case schema.EmptyFieldError:
			return fmt.Errorf(`%w: use validate pkg to set "required" fields, not schema`, cairn.ErrNotImplemented)

		case schema.UnknownKeyError:
			// NOTE(tmk): the decoder currently accepts unknown keys,
			// so this case only arises if that configuration changes.
			ve := ValidationError{
				Field: err.Key,
				Got:   "value is set",
				Rule:  "unexpected key should not be set",
			}

			validErrs = append(validErrs, ve)

		default:
			// NOTE(tmk): a field requiring a schema.Converter that has none registered
			// only raises an error once a url.Values actually sets that field's key.
			if strings.Contains(err.Error(), "schema: converter not found for") {
				return fmt.Errorf("%w: cannot convert values into unsupported type", cairn.ErrNotImplemented)
			}

			// Anything else is likely a programming error, so surface it immediately.
			return fmt.Errorf("%w: %s", cairn.ErrUnexpected, err)
		}
	}

	return validErrs
}
