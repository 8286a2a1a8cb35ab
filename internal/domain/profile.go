// Package domain defines the core persistence models for the application.
// This file holds the ExtractedProfile value type: the partial, per-message
// profile produced by the extraction capability, and the rules for merging
// it into a stored User.
package domain

// ExtractedProfile is the structured-but-partial profile signal derived from
// a single message. Every field is optional and the zero value means "no
// signal". An ExtractedProfile is never authoritative on its own; it is
// merged into the User record field by field.
type ExtractedProfile struct {
	Name                string   `json:"name,omitempty"`
	Company             string   `json:"company,omitempty"`
	Email               string   `json:"email,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	Budget              string   `json:"budget,omitempty"`
	PropertyType        string   `json:"property_type,omitempty"`
	LocationPreference  string   `json:"location_preference,omitempty"`
	Timeline            string   `json:"timeline,omitempty"`
	Urgency             string   `json:"urgency,omitempty"`
	LeaseTerms          []string `json:"lease_terms,omitempty"`
	CollaborationStatus []string `json:"collaboration_status,omitempty"`
}

// IsEmpty reports whether the profile carries no signal at all.
func (p ExtractedProfile) IsEmpty() bool {
	return p.Name == "" && p.Company == "" && p.Email == "" && p.Phone == "" && p.Budget == "" &&
		p.PropertyType == "" && p.LocationPreference == "" && p.Timeline == "" &&
		p.Urgency == "" && len(p.LeaseTerms) == 0 && len(p.CollaborationStatus) == 0
}

// DeltaAgainst returns the subset of p that is new relative to u: fields that
// are non-empty and differ from the stored value. Empty extracted fields are
// never part of the delta, so merging is monotonic-additive. Email is treated
// as identity rather than profile and is only staged when the stored value is
// blank (it carries a unique index and must not drift once set).
//
// The returned map keys match the User JSON field names and the values are
// either string or []string.
func (p ExtractedProfile) DeltaAgainst(u *User) map[string]any {
	delta := make(map[string]any)

	stage := func(key, newVal, oldVal string) {
		if newVal != "" && newVal != oldVal {
			delta[key] = newVal
		}
	}
	stage("name", p.Name, u.Name)
	stage("company", p.Company, u.Company)
	stage("phone", p.Phone, u.Phone)
	stage("budget", p.Budget, u.Budget)
	stage("property_type", p.PropertyType, u.PropertyType)
	stage("location_preference", p.LocationPreference, u.LocationPreference)
	stage("timeline", p.Timeline, u.Timeline)
	stage("urgency", p.Urgency, u.Urgency)

	if p.Email != "" && u.Email == "" {
		delta["email"] = p.Email
	}
	if len(p.LeaseTerms) > 0 && !sameStrings(p.LeaseTerms, u.LeaseTerms) {
		delta["lease_terms"] = append([]string(nil), p.LeaseTerms...)
	}
	if len(p.CollaborationStatus) > 0 && !sameStrings(p.CollaborationStatus, u.CollaborationStatus) {
		delta["collaboration_status"] = append([]string(nil), p.CollaborationStatus...)
	}
	return delta
}

// ApplyProfileDelta writes a delta produced by DeltaAgainst back onto u.
// Unknown keys are ignored.
func ApplyProfileDelta(u *User, delta map[string]any) {
	for k, v := range delta {
		switch k {
		case "name":
			u.Name, _ = v.(string)
		case "company":
			u.Company, _ = v.(string)
		case "email":
			u.Email, _ = v.(string)
		case "phone":
			u.Phone, _ = v.(string)
		case "budget":
			u.Budget, _ = v.(string)
		case "property_type":
			u.PropertyType, _ = v.(string)
		case "location_preference":
			u.LocationPreference, _ = v.(string)
		case "timeline":
			u.Timeline, _ = v.(string)
		case "urgency":
			u.Urgency, _ = v.(string)
		case "lease_terms":
			if s, ok := v.([]string); ok {
				u.LeaseTerms = s
			}
		case "collaboration_status":
			if s, ok := v.([]string); ok {
				u.CollaborationStatus = s
			}
		}
	}
}

// sameStrings compares two string slices as unordered sets.
func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
