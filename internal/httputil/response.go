package httputil

import (
	"encoding/json"
	"net/http"
)

// ProblemTypePrefix namespaces the RFC 7807 type of every error inkfold
// returns. Clients switch on the suffix.
const ProblemTypePrefix = "urn:inkfold:problem:"

// RespondJSON writes a JSON response with the given status code.
// The body is marshaled before headers are sent so an encoding failure
// still yields a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondNoContent writes a 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// ProblemDetail is an RFC 7807 problem. Extra fields are flattened into
// the top-level object.
type ProblemDetail struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}
	// Standard members win over extras with the same name
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// NewProblem builds the problem inkfold returns for status
func NewProblem(status int, detail string) ProblemDetail {
	return ProblemDetail{
		Type:   ProblemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// RespondError writes an RFC 7807 problem response
func RespondError(w http.ResponseWriter, status int, detail string) {
	writeProblem(w, NewProblem(status, detail))
}

// RespondErrorWithExtras writes a problem with additional top-level fields,
// such as the id of a conflicting resource
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	problem := NewProblem(status, detail)
	problem.Extra = extras
	writeProblem(w, problem)
}

func writeProblem(w http.ResponseWriter, problem ProblemDetail) {
	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	w.Write(payload)
}

// ProblemType returns the problem type URI for a status code
func ProblemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ProblemTypePrefix + "validation"
	case http.StatusUnauthorized:
		return ProblemTypePrefix + "unauthenticated"
	case http.StatusForbidden:
		return ProblemTypePrefix + "forbidden"
	case http.StatusNotFound:
		return ProblemTypePrefix + "not-found"
	case http.StatusConflict:
		return ProblemTypePrefix + "conflict"
	case http.StatusRequestEntityTooLarge:
		return ProblemTypePrefix + "too-large"
	case http.StatusBadGateway:
		return ProblemTypePrefix + "model-unavailable"
	case http.StatusServiceUnavailable:
		return ProblemTypePrefix + "unavailable"
	case http.StatusInternalServerError:
		return ProblemTypePrefix + "internal"
	default:
		return "about:blank"
	}
}
