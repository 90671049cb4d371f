package services

// The rule tables below are ordered contracts: earlier rules win when
// predicates overlap. "ndis number" must be claimed before the bare "name"
// rule ever sees the label, and business/bank labels are excluded from the
// personal-name rules for the same reason. Reorder only with the extractor
// tests open.

var participantRules = []Rule{
	{Field: "ndisNumber", Match: LabelMatch{All: []string{"ndis", "number"}}},
	{Field: "email", Match: LabelMatch{All: []string{"email"}}},
	{Field: "age", Match: LabelMatch{All: []string{"age"}}},
	{Field: "disabilityCategory", Match: LabelMatch{Any: []string{"disability", "diagnosis"}}},
	{Field: "supportLevel", Match: LabelMatch{All: []string{"support"}, Any: []string{"level", "needs"}}},
	{Field: "currentHousingType", Match: LabelMatch{All: []string{"current"}, Any: []string{"housing", "living", "accommodation"}}},
	{Field: "name", Match: LabelMatch{All: []string{"name"}, None: []string{"business", "company", "bank", "emergency", "contact"}}},
	{Field: "housingPreferences", Accumulate: true, Match: LabelMatch{Any: []string{"location", "suburb", "area"}, None: []string{"email"}}},
	{Field: "housingPreferences", Accumulate: true, Match: LabelMatch{All: []string{"property"}, Any: []string{"type", "kind"}}},
	{Field: "housingPreferences", Accumulate: true, Match: LabelMatch{Any: []string{"bedroom", "bathroom"}}},
	{Field: "housingPreferences", Accumulate: true, Match: LabelMatch{Any: []string{"accessibility", "accessible", "modification"}}},
	{Field: "housingPreferences", Accumulate: true, Match: LabelMatch{Any: []string{"budget", "rent"}}},
}

var landlordRules = []Rule{
	{Field: "email", Match: LabelMatch{All: []string{"email"}}},
	{Field: "abn", Match: LabelMatch{All: []string{"abn"}}},
	{Field: "businessName", Match: LabelMatch{Any: []string{"business name", "company name", "trading name"}}},
	{Field: "registrationNumber", Match: LabelMatch{All: []string{"registration", "number"}}},
	{Field: "ndisRegistered", Match: LabelMatch{All: []string{"ndis"}, Any: []string{"registered", "registration"}}},
	{Field: "phone", Match: LabelMatch{Any: []string{"phone", "mobile", "contact number"}}},
	{Field: "bankDetails", Match: LabelMatch{Any: []string{"bank", "bsb", "account number"}}},
	{Field: "fullName", Match: LabelMatch{All: []string{"name"}, None: []string{"business", "company", "trading", "bank"}}},
	{Field: "address", Match: LabelMatch{Any: []string{"address", "property location"}}},
}

var investorRules = []Rule{
	{Field: "email", Match: LabelMatch{All: []string{"email"}}},
	{Field: "phone", Match: LabelMatch{Any: []string{"phone", "mobile", "contact number"}}},
	{Field: "availableCapital", Match: LabelMatch{Any: []string{"capital", "investment amount", "amount to invest", "budget"}}},
	{Field: "riskTolerance", Match: LabelMatch{All: []string{"risk"}}},
	{Field: "preferredPropertyTypes", Accumulate: true, Match: LabelMatch{All: []string{"property"}, Any: []string{"type", "kind", "dwelling"}}},
	{Field: "preferredLocations", Accumulate: true, Match: LabelMatch{Any: []string{"location", "suburb", "area", "region"}, None: []string{"email"}}},
	{Field: "fullName", Match: LabelMatch{All: []string{"name"}, None: []string{"business", "company", "bank"}}},
}
