package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
)

// ETag renders a draft version as an entity tag: "<draft id>.<revision>".
func ETag(v usecase.DraftVersion) string {
	return fmt.Sprintf("%q", v.DraftID+"."+strconv.FormatInt(v.Revision, 10))
}

// ParseETag reverses ETag. Weak tags are accepted.
func ParseETag(tag string) (usecase.DraftVersion, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
	unquoted, err := strconv.Unquote(tag)
	if err != nil {
		return usecase.DraftVersion{}, fmt.Errorf("entity tag %s is not quoted", tag)
	}
	dot := strings.LastIndexByte(unquoted, '.')
	if dot <= 0 {
		return usecase.DraftVersion{}, fmt.Errorf("entity tag %s has no revision", tag)
	}
	rev, err := strconv.ParseInt(unquoted[dot+1:], 10, 64)
	if err != nil || rev < 0 {
		return usecase.DraftVersion{}, fmt.Errorf("entity tag %s has a malformed revision", tag)
	}
	return usecase.DraftVersion{DraftID: unquoted[:dot], Revision: rev}, nil
}

// IfMatch binds the If-Match header of a write to the request context, so
// the wizard refuses to act on a draft that changed since the client read it.
// Requests without the header are not conditional.
func IfMatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("If-Match")
		if header == "" || header == "*" || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		v, err := ParseETag(header)
		if err != nil {
			http.Error(w, "Malformed If-Match header", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(usecase.WithExpectedVersion(r.Context(), v)))
	})
}
