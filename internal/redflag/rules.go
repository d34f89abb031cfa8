package redflag

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	uaeFederalCourtRE = regexp.MustCompile(`\buae federal courts?\b`)
	dubaiCourtRE      = regexp.MustCompile(`\bdubai courts?\b`)
	adgmCourtRE       = regexp.MustCompile(`\badgm courts?\b`)
	uaeCivilCodeRE    = regexp.MustCompile(`\buae civil code\b`)
	adgmRE            = regexp.MustCompile(`\badgm\b`)
	legalSuffixRE     = regexp.MustCompile(`\bllc\b|\blimited\b|\bltd\b`)
	uboThresholdRE    = regexp.MustCompile(`\b25%|\btwenty[- ]five percent\b`)
	usdRE             = regexp.MustCompile(`\busd\b|\bus dollar\b`)
	slashDateRE       = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	dashDateRE        = regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`)
)

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsignature\b`),
	regexp.MustCompile(`\bsigned by\b`),
	regexp.MustCompile(`\bfor and on behalf\b`),
	regexp.MustCompile(`\bexecuted\b`),
	regexp.MustCompile(`\bin witness whereof\b`),
}

// globalRules run for every document regardless of detected type, in this
// order.
var globalRules = []Rule{
	{Name: "empty-document", Check: checkEmptyDocument},
	{Name: "jurisdiction", Check: checkJurisdiction},
	{Name: "signatures", Check: checkSignatures},
	{Name: "adgm-compliance", Check: checkADGMCompliance},
	{Name: "language-formatting", Check: checkLanguageAndFormatting},
}

// typeRules are scoped by document type; their tags match against the
// detected type name.
var typeRules = []Rule{
	{Name: "articles-of-association", DocTypeTags: []string{"articles of association"}, Check: checkArticlesOfAssociation},
	{Name: "memorandum-of-association", DocTypeTags: []string{"memorandum of association"}, Check: checkMemorandumOfAssociation},
	{Name: "ubo-declaration", DocTypeTags: []string{"ubo"}, Check: checkUBODeclaration},
	{Name: "incorporation-application", DocTypeTags: []string{"incorporation"}, Check: checkIncorporationApplication},
}

func checkEmptyDocument(in Input) []Issue {
	if strings.TrimSpace(in.Text) != "" {
		return []Issue{}
	}
	return []Issue{{
		Issue:      "Document appears to be empty",
		Severity:   SeverityHigh,
		Suggestion: "Verify the uploaded file contains extractable text",
		Section:    "General",
	}}
}

func checkJurisdiction(in Input) []Issue {
	issues := []Issue{}

	if uaeFederalCourtRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "References UAE Federal Courts instead of ADGM Courts",
			Severity:   SeverityHigh,
			Suggestion: `Replace with "ADGM Courts" for proper jurisdiction`,
			Section:    FindSection(in.Text, "uae federal court"),
		})
	}

	if dubaiCourtRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "References Dubai Courts instead of ADGM Courts",
			Severity:   SeverityHigh,
			Suggestion: "Update jurisdiction to ADGM Courts",
			Section:    FindSection(in.Text, "dubai court"),
		})
	}

	if strings.Contains(in.TextLower, "jurisdiction") && !adgmCourtRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "Jurisdiction clause present but does not specify ADGM Courts",
			Severity:   SeverityHigh,
			Suggestion: "Specify ADGM Courts as the governing jurisdiction",
			Section:    FindSection(in.Text, "jurisdiction"),
		})
	}

	if uaeCivilCodeRE.MatchString(in.TextLower) && !adgmRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "References UAE Civil Code without ADGM context",
			Severity:   SeverityMedium,
			Suggestion: "Specify ADGM laws take precedence where applicable",
			Section:    FindSection(in.Text, "uae civil code"),
		})
	}

	return issues
}

func checkSignatures(in Input) []Issue {
	issues := []Issue{}

	hasSignature := false
	for _, pattern := range signaturePatterns {
		if pattern.MatchString(in.TextLower) {
			hasSignature = true
			break
		}
	}

	if !hasSignature && strings.TrimSpace(in.Text) != "" {
		issues = append(issues, Issue{
			Issue:      "Missing signature block or execution clause",
			Severity:   SeverityHigh,
			Suggestion: "Add proper signature block with name, title, and date fields",
			Section:    "End of document",
		})
	}

	needsWitness := strings.Contains(in.TextLower, "deed") || strings.Contains(in.TextLower, "power of attorney")
	if needsWitness && !strings.Contains(in.TextLower, "witness") {
		issues = append(issues, Issue{
			Issue:      "Document may require witness signature",
			Severity:   SeverityMedium,
			Suggestion: "Consider adding witness signature requirements",
			Section:    FindSection(in.Text, "signature"),
		})
	}

	return issues
}

func checkADGMCompliance(in Input) []Issue {
	issues := []Issue{}

	if strings.TrimSpace(in.Text) == "" {
		return issues
	}

	if !strings.Contains(in.TextLower, "adgm") && !strings.Contains(in.TextLower, "abu dhabi global market") {
		issues = append(issues, Issue{
			Issue:      "Document does not reference ADGM jurisdiction",
			Severity:   SeverityMedium,
			Suggestion: "Include reference to ADGM (Abu Dhabi Global Market) jurisdiction",
			Section:    "General",
		})
	}

	if usdRE.MatchString(in.TextLower) && !strings.Contains(in.TextLower, "aed") {
		issues = append(issues, Issue{
			Issue:      "References USD without AED alternative",
			Severity:   SeverityLow,
			Suggestion: "Consider including AED (UAE Dirham) as alternative currency",
			Section:    FindSection(in.Text, "usd"),
		})
	}

	complianceTerms := []string{"compliant", "compliance", "regulatory", "regulation"}
	hasComplianceRef := false
	for _, term := range complianceTerms {
		if strings.Contains(in.TextLower, term) {
			hasComplianceRef = true
			break
		}
	}

	if len(strings.Fields(in.Text)) > 200 && !hasComplianceRef {
		issues = append(issues, Issue{
			Issue:      "Document lacks compliance or regulatory references",
			Severity:   SeverityLow,
			Suggestion: "Consider adding compliance statements relevant to ADGM regulations",
			Section:    "General",
		})
	}

	return issues
}

var ambiguousPhrases = []struct {
	phrase     string
	suggestion string
}{
	{"may or may not", "Use definitive language instead of ambiguous terms"},
	{"as appropriate", "Specify exact conditions or requirements"},
	{"if necessary", "Define when such necessity arises"},
	{"reasonable", "Define what constitutes reasonable in this context"},
}

func checkLanguageAndFormatting(in Input) []Issue {
	issues := []Issue{}

	for _, ap := range ambiguousPhrases {
		if strings.Contains(in.TextLower, ap.phrase) {
			issues = append(issues, Issue{
				Issue:      fmt.Sprintf("Ambiguous language detected: %q", ap.phrase),
				Severity:   SeverityLow,
				Suggestion: ap.suggestion,
				Section:    FindSection(in.Text, ap.phrase),
			})
		}
	}

	if !strings.Contains(in.TextLower, "shall") && strings.Contains(in.TextLower, "will") {
		issues = append(issues, Issue{
			Issue:      `Uses "will" instead of "shall" for obligations`,
			Severity:   SeverityLow,
			Suggestion: `Use "shall" for legal obligations and "will" for future actions`,
			Section:    "General",
		})
	}

	longDoc := len(strings.Fields(in.Text)) > 500
	if longDoc && !strings.Contains(in.TextLower, "definition") && !strings.Contains(in.TextLower, "means") {
		issues = append(issues, Issue{
			Issue:      "Long document may benefit from definitions section",
			Severity:   SeverityLow,
			Suggestion: "Consider adding a definitions section for key terms",
			Section:    "Structure",
		})
	}

	for _, datePattern := range []*regexp.Regexp{slashDateRE, dashDateRE} {
		if loc := datePattern.FindString(in.Text); loc != "" {
			issues = append(issues, Issue{
				Issue:      "Date format may be ambiguous",
				Severity:   SeverityLow,
				Suggestion: `Use unambiguous date format (e.g., "1st January 2024")`,
				Section:    FindSection(in.Text, loc),
			})
			break
		}
	}

	return issues
}

func checkArticlesOfAssociation(in Input) []Issue {
	issues := []Issue{}

	if !strings.Contains(in.TextLower, "articles of association") {
		return issues
	}

	if !strings.Contains(in.TextLower, "share capital") && !strings.Contains(in.TextLower, "shares") {
		issues = append(issues, Issue{
			Issue:      "Missing share capital provisions in Articles of Association",
			Severity:   SeverityHigh,
			Suggestion: "Add clause specifying authorized share capital and classes of shares",
			Section:    "Share Capital",
		})
	}

	if !strings.Contains(in.TextLower, "director") {
		issues = append(issues, Issue{
			Issue:      "Missing directors provisions",
			Severity:   SeverityHigh,
			Suggestion: "Add provisions for appointment and powers of directors",
			Section:    "Directors",
		})
	}

	if !strings.Contains(in.TextLower, "objects") && !strings.Contains(in.TextLower, "purpose") {
		issues = append(issues, Issue{
			Issue:      "Missing company objects or purpose clause",
			Severity:   SeverityMedium,
			Suggestion: "Include clause defining company objects and permitted activities",
			Section:    "Company Objects",
		})
	}

	return issues
}

func checkMemorandumOfAssociation(in Input) []Issue {
	issues := []Issue{}

	if !strings.Contains(in.TextLower, "memorandum of association") {
		return issues
	}

	if !legalSuffixRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "Company name may not include proper legal designation",
			Severity:   SeverityMedium,
			Suggestion: "Ensure company name includes LLC, Limited, or Ltd as appropriate",
			Section:    "Company Name",
		})
	}

	if !strings.Contains(in.TextLower, "registered office") && !strings.Contains(in.TextLower, "registered address") {
		issues = append(issues, Issue{
			Issue:      "Missing registered office clause",
			Severity:   SeverityHigh,
			Suggestion: "Include registered office address in ADGM",
			Section:    "Registered Office",
		})
	}

	return issues
}

var uboRequiredFields = []string{"full name", "address", "nationality", "date of birth"}

func checkUBODeclaration(in Input) []Issue {
	issues := []Issue{}

	if !strings.Contains(in.TextLower, "ultimate beneficial owner") && !strings.Contains(in.TextLower, "ubo") {
		return issues
	}

	if !uboThresholdRE.MatchString(in.TextLower) {
		issues = append(issues, Issue{
			Issue:      "Missing 25% ownership threshold reference",
			Severity:   SeverityMedium,
			Suggestion: "Specify 25% ownership threshold for UBO determination",
			Section:    "Ownership Threshold",
		})
	}

	for _, field := range uboRequiredFields {
		if !strings.Contains(in.TextLower, field) {
			issues = append(issues, Issue{
				Issue:      fmt.Sprintf("May be missing %s field for UBO", field),
				Severity:   SeverityMedium,
				Suggestion: fmt.Sprintf("Ensure %s is included for each UBO", field),
				Section:    "UBO Information",
			})
		}
	}

	return issues
}

var incorporationElements = []struct {
	element string
	section string
}{
	{"proposed company name", "Company Name"},
	{"business activity", "Business Activity"},
	{"share capital", "Share Capital"},
	{"registered office", "Registered Office"},
}

func checkIncorporationApplication(in Input) []Issue {
	issues := []Issue{}

	if !strings.Contains(in.TextLower, "incorporation") && !strings.Contains(in.TextLower, "application") {
		return issues
	}

	for _, el := range incorporationElements {
		if !strings.Contains(in.TextLower, el.element) {
			issues = append(issues, Issue{
				Issue:      fmt.Sprintf("Missing %s in incorporation application", el.element),
				Severity:   SeverityHigh,
				Suggestion: fmt.Sprintf("Include %s details in the application", el.element),
				Section:    el.section,
			})
		}
	}

	return issues
}
