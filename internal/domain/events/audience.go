package events

import "strings"

// Target audience values an event may announce to. An event carries a set of
// these; a user matching any entry is in-audience (union semantics).
const (
	AudienceAll        = "all"
	AudienceStudents   = "students"
	AudienceFaculty    = "faculty"
	AudienceDepartment = "specific_department"
)

func isAllowedAudience(value string) bool {
	switch value {
	case AudienceAll, AudienceStudents, AudienceFaculty, AudienceDepartment:
		return true
	default:
		return false
	}
}

// NormalizeAudience lowercases, trims and de-duplicates audience values,
// returning a ValidationError for any unknown entry.
func NormalizeAudience(values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, ValidationError{Field: "targetAudience", Message: "is required"}
	}
	seen := make(map[string]bool, len(values))
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		item := strings.ToLower(strings.TrimSpace(value))
		if item == "" {
			continue
		}
		if !isAllowedAudience(item) {
			return nil, ValidationError{Field: "targetAudience", Message: "unsupported audience: " + item}
		}
		if !seen[item] {
			seen[item] = true
			normalized = append(normalized, item)
		}
	}
	if len(normalized) == 0 {
		return nil, ValidationError{Field: "targetAudience", Message: "is required"}
	}
	return normalized, nil
}

// AudienceMember describes the user attributes audience resolution needs.
type AudienceMember struct {
	Role       string
	Department string
}

// InAudience reports whether member belongs to the event's target audience.
// Any matching clause includes the member.
func InAudience(e *Event, member AudienceMember) bool {
	for _, audience := range e.TargetAudience {
		switch audience {
		case AudienceAll:
			return true
		case AudienceStudents:
			if member.Role == "student" {
				return true
			}
		case AudienceFaculty:
			if member.Role == "faculty" {
				return true
			}
		case AudienceDepartment:
			if e.Department != "" && member.Department == e.Department {
				return true
			}
		}
	}
	return false
}
