package httpx

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
)

// Params decodes the query parameters of a GET request into the given struct.
func Params(r *http.Request, v interface{}) error {
	switch r.Method {
	case "GET", "HEAD":
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return Error(http.StatusBadRequest, err)
		}
		dec := schema.NewDecoder()
		dec.IgnoreUnknownKeys(true)
		if err := dec.Decode(v, values); err != nil {
			return Error(http.StatusBadRequest, err)
		}
	default:
		return Error(http.StatusMethodNotAllowed, errors.New("unsupported method: "+r.Method))
	}
	return nil
}
