package registry

// documentSignatures is the ADGM document-type pattern table. New document
// types are added here, not in the detector.
var documentSignatures = []TypeSignature{
	{
		Name:                "Articles of Association",
		PrimaryKeywords:     []string{"articles of association", "articles of incorporation"},
		SecondaryKeywords:   []string{"share capital", "directors", "shareholders", "company constitution"},
		ExclusionKeywords:   []string{"memorandum"},
		StructureIndicators: []string{"article 1", "article 2", "clause"},
		ConfidenceThreshold: 0.6,
	},
	{
		Name:                "Memorandum of Association",
		PrimaryKeywords:     []string{"memorandum of association", "memorandum of incorporation"},
		SecondaryKeywords:   []string{"company name", "registered office", "objects", "liability"},
		ExclusionKeywords:   []string{"articles"},
		StructureIndicators: []string{"whereas", "now therefore"},
		ConfidenceThreshold: 0.6,
	},
	{
		Name:                "UBO Declaration",
		PrimaryKeywords:     []string{"ultimate beneficial owner", "ubo declaration", "beneficial ownership"},
		SecondaryKeywords:   []string{"25%", "twenty-five percent", "ownership", "control"},
		StructureIndicators: []string{"declare", "confirm", "certify"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Register of Members and Directors",
		PrimaryKeywords:     []string{"register of members", "register of directors", "members register"},
		SecondaryKeywords:   []string{"shareholder", "director", "appointment", "resignation"},
		StructureIndicators: []string{"name", "address", "shares held", "date of appointment"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Incorporation Application",
		PrimaryKeywords:     []string{"incorporation application", "application for incorporation", "company formation"},
		SecondaryKeywords:   []string{"proposed name", "business activity", "applicant"},
		StructureIndicators: []string{"applicant details", "proposed activities"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Board Resolution",
		PrimaryKeywords:     []string{"board resolution", "directors' resolution", "board meeting"},
		SecondaryKeywords:   []string{"resolved", "directors", "meeting", "unanimous"},
		ExclusionKeywords:   []string{"shareholder"},
		StructureIndicators: []string{"it was resolved", "resolved that", "meeting held"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Shareholder Resolution",
		PrimaryKeywords:     []string{"shareholder resolution", "shareholders' resolution", "general meeting"},
		SecondaryKeywords:   []string{"resolved", "shareholders", "meeting", "ordinary resolution"},
		ExclusionKeywords:   []string{"board", "directors"},
		StructureIndicators: []string{"it was resolved", "resolved that", "meeting held"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Employment Contract",
		PrimaryKeywords:     []string{"employment contract", "employment agreement", "service agreement"},
		SecondaryKeywords:   []string{"employee", "employer", "salary", "termination", "duties"},
		StructureIndicators: []string{"terms of employment", "job description", "remuneration"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Commercial License Application",
		PrimaryKeywords:     []string{"commercial license", "license application", "business license"},
		SecondaryKeywords:   []string{"trade name", "business activity", "premises"},
		StructureIndicators: []string{"license details", "business activities"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Power of Attorney",
		PrimaryKeywords:     []string{"power of attorney", "poa", "attorney"},
		SecondaryKeywords:   []string{"appoint", "attorney", "behalf", "authorize"},
		StructureIndicators: []string{"hereby appoint", "full power", "in witness whereof"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Lease Agreement",
		PrimaryKeywords:     []string{"lease agreement", "tenancy agreement", "rental agreement"},
		SecondaryKeywords:   []string{"landlord", "tenant", "premises", "rent", "lease term"},
		StructureIndicators: []string{"lease term", "rental amount", "premises description"},
		ConfidenceThreshold: 0.5,
	},
	{
		Name:                "Non-Disclosure Agreement",
		PrimaryKeywords:     []string{"non-disclosure agreement", "nda", "confidentiality agreement"},
		SecondaryKeywords:   []string{"confidential", "proprietary", "disclosure", "information"},
		StructureIndicators: []string{"confidential information", "non-disclosure"},
		ConfidenceThreshold: 0.5,
	},
}

var processChecklists = []ProcessChecklist{
	{
		Name: "Company Incorporation",
		RequiredTypes: []string{
			"Articles of Association",
			"Memorandum of Association",
			"Incorporation Application",
			"UBO Declaration",
			"Register of Members and Directors",
		},
	},
	{
		Name: "Commercial Licensing",
		RequiredTypes: []string{
			"Commercial License Application",
			"Business Plan",
			"Lease Agreement",
			"Financial Projections",
		},
	},
	{
		Name: "Employment Documentation",
		RequiredTypes: []string{
			"Employment Contract",
			"Job Description",
			"Salary Certificate",
		},
	},
}

// fallbackLabels is checked in order; the first keyword found wins.
var fallbackLabels = []FallbackLabel{
	{Keyword: "contract", Label: "General Contract"},
	{Keyword: "agreement", Label: "General Agreement"},
	{Keyword: "resolution", Label: "General Resolution"},
	{Keyword: "application", Label: "General Application"},
	{Keyword: "declaration", Label: "General Declaration"},
	{Keyword: "certificate", Label: "General Certificate"},
	{Keyword: "notice", Label: "General Notice"},
	{Keyword: "policy", Label: "General Policy"},
	{Keyword: "procedure", Label: "General Procedure"},
	{Keyword: "form", Label: "General Form"},
}
