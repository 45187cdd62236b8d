package notify

import "strings"

var serviceTokens = map[string]Service{
	string(ServicePsychoeducational):  ServicePsychoeducational,
	string(ServiceNeuropsychological): ServiceNeuropsychological,
	string(ServiceADHD):               ServiceADHD,
}

// Classify maps a raw service-type cell value to a service identifier.
// Matching is case-insensitive and whitespace-trimmed; anything outside the
// closed set yields false, which halts the flow.
func Classify(rawServiceType string) (Service, bool) {
	normalized := strings.ToLower(strings.TrimSpace(rawServiceType))
	if normalized == "" {
		return "", false
	}

	service, ok := serviceTokens[normalized]
	return service, ok
}
