package analyzers

import "strings"

var (
	contractDocTypes = map[string]bool{"contract": true, "agreement": true, "terms": true}
	policyDocTypes   = map[string]bool{"policy": true, "compliance_doc": true, "procedure": true, "privacy_policy": true}

	gdprKeywords = []string{"gdpr", "personal data", "data subject", "data protection"}
	soc2Keywords = []string{"soc 2", "soc2", "security controls", "trust service"}
)

// DetectFrameworks picks frameworks from document type and content.
// Contract-shaped documents get the contract analyzer; policy-shaped
// documents get GDPR and SOC 2 keyword probes. When nothing matches,
// contract risk is the fallback.
func DetectFrameworks(documentType, textContent string) []string {
	var frameworks []string

	if contractDocTypes[documentType] {
		frameworks = append(frameworks, FrameworkContractRisk)
	}

	if policyDocTypes[documentType] {
		textLower := strings.ToLower(textContent)
		if containsAny(textLower, gdprKeywords) {
			frameworks = append(frameworks, FrameworkGDPR)
		}
		if containsAny(textLower, soc2Keywords) {
			frameworks = append(frameworks, FrameworkSOC2)
		}
	}

	if len(frameworks) == 0 {
		frameworks = append(frameworks, FrameworkContractRisk)
	}
	return frameworks
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
