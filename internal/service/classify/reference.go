// internal/service/classify/reference.go

package classify

// Reference is an immutable snapshot of the static tables the classifier
// works from: policy domain keyword lists, geography gazetteers, and the
// political entity knowledge base. A snapshot is built once per batch run
// and passed in explicitly; reloading produces a new snapshot with a new
// version rather than mutating shared state.
type Reference struct {
	Version        string
	DomainKeywords map[string][]string
	States         map[string]string
	Cities         map[string]string
	Countries      map[string]string
	Politicians    []Entity
	Organizations  []Entity
	Legislation    []Entity
}

// Entity is a canonical name plus the aliases it may appear under.
type Entity struct {
	Canonical string
	Aliases   []string
}

// DefaultReference returns the built-in reference tables. Deployments that
// maintain their own knowledge base construct a Reference from storage
// instead; the shape is identical.
func DefaultReference() *Reference {
	return &Reference{
		Version:        "builtin-1",
		DomainKeywords: defaultDomainKeywords(),
		States:         defaultStates(),
		Cities:         defaultCities(),
		Countries:      defaultCountries(),
		Politicians:    defaultPoliticians(),
		Organizations:  defaultOrganizations(),
		Legislation:    defaultLegislation(),
	}
}

func defaultDomainKeywords() map[string][]string {
	return map[string][]string{
		"Healthcare": {
			"medicaid", "medicare", "health insurance", "public health",
			"hospital", "prescription drug", "affordable care", "health coverage",
			"mental health", "opioid",
		},
		"Environment": {
			"climate change", "carbon emissions", "clean energy", "pollution",
			"wildfire", "drought", "epa", "greenhouse gas", "conservation",
			"renewable",
		},
		"Education": {
			"public school", "school board", "student loan", "teacher pay",
			"curriculum", "charter school", "tuition", "school funding",
			"higher education",
		},
		"Immigration": {
			"border security", "asylum", "visa", "deportation", "daca",
			"immigration reform", "migrant", "citizenship",
		},
		"Economy": {
			"inflation", "unemployment", "minimum wage", "small business",
			"interest rate", "recession", "gdp", "supply chain", "tariff",
		},
		"Housing": {
			"rent control", "affordable housing", "eviction", "zoning",
			"homelessness", "housing crisis", "mortgage rate", "tenant",
		},
		"Criminal Justice": {
			"police reform", "sentencing", "bail reform", "incarceration",
			"public safety", "recidivism", "parole", "prosecutor",
		},
		"Voting Rights": {
			"voter id", "ballot access", "redistricting", "gerrymander",
			"early voting", "election security", "voter registration",
			"mail-in ballot",
		},
		"Energy": {
			"oil and gas", "pipeline", "solar", "wind power", "fracking",
			"power grid", "nuclear plant", "utility rates", "electric vehicle",
		},
		"Technology": {
			"artificial intelligence", "data privacy", "broadband",
			"social media", "antitrust", "cybersecurity", "net neutrality",
			"surveillance",
		},
		"Labor": {
			"union", "collective bargaining", "strike", "overtime",
			"worker safety", "gig economy", "paid leave", "right to work",
		},
		"Foreign Policy": {
			"sanctions", "nato", "treaty", "foreign aid", "diplomacy",
			"military aid", "embassy", "united nations",
		},
		"Gun Policy": {
			"background check", "assault weapon", "gun violence",
			"concealed carry", "red flag law", "second amendment", "firearm",
		},
		"Reproductive Rights": {
			"abortion", "roe v. wade", "contraception", "reproductive health",
			"planned parenthood", "fetal", "family planning",
		},
		"Taxes": {
			"tax cut", "tax credit", "property tax", "capital gains",
			"corporate tax", "income tax", "tax reform", "irs",
		},
	}
}

func defaultStates() map[string]string {
	return map[string]string{
		"alabama": "US-AL", "alaska": "US-AK", "arizona": "US-AZ",
		"arkansas": "US-AR", "california": "US-CA", "colorado": "US-CO",
		"connecticut": "US-CT", "delaware": "US-DE", "florida": "US-FL",
		"georgia": "US-GA", "hawaii": "US-HI", "idaho": "US-ID",
		"illinois": "US-IL", "indiana": "US-IN", "iowa": "US-IA",
		"kansas": "US-KS", "kentucky": "US-KY", "louisiana": "US-LA",
		"maine": "US-ME", "maryland": "US-MD", "massachusetts": "US-MA",
		"michigan": "US-MI", "minnesota": "US-MN", "mississippi": "US-MS",
		"missouri": "US-MO", "montana": "US-MT", "nebraska": "US-NE",
		"nevada": "US-NV", "new hampshire": "US-NH", "new jersey": "US-NJ",
		"new mexico": "US-NM", "new york": "US-NY", "north carolina": "US-NC",
		"north dakota": "US-ND", "ohio": "US-OH", "oklahoma": "US-OK",
		"oregon": "US-OR", "pennsylvania": "US-PA", "rhode island": "US-RI",
		"south carolina": "US-SC", "south dakota": "US-SD",
		"tennessee": "US-TN", "texas": "US-TX", "utah": "US-UT",
		"vermont": "US-VT", "virginia": "US-VA", "washington state": "US-WA",
		"west virginia": "US-WV", "wisconsin": "US-WI", "wyoming": "US-WY",
	}
}

// defaultCities maps major city names to the state code they sit in. A city
// match yields local granularity.
func defaultCities() map[string]string {
	return map[string]string{
		"new york city": "US-NY", "los angeles": "US-CA", "chicago": "US-IL",
		"houston": "US-TX", "phoenix": "US-AZ", "philadelphia": "US-PA",
		"san antonio": "US-TX", "san diego": "US-CA", "dallas": "US-TX",
		"austin": "US-TX", "san francisco": "US-CA", "seattle": "US-WA",
		"denver": "US-CO", "boston": "US-MA", "atlanta": "US-GA",
		"miami": "US-FL", "detroit": "US-MI", "minneapolis": "US-MN",
		"portland": "US-OR", "baltimore": "US-MD", "milwaukee": "US-WI",
		"albuquerque": "US-NM", "sacramento": "US-CA", "kansas city": "US-MO",
		"cleveland": "US-OH", "new orleans": "US-LA", "pittsburgh": "US-PA",
		"st. louis": "US-MO", "nashville": "US-TN", "memphis": "US-TN",
	}
}

func defaultCountries() map[string]string {
	return map[string]string{
		"canada": "CA", "mexico": "MX", "united kingdom": "GB",
		"france": "FR", "germany": "DE", "italy": "IT", "spain": "ES",
		"ukraine": "UA", "russia": "RU", "china": "CN", "japan": "JP",
		"south korea": "KR", "north korea": "KP", "india": "IN",
		"israel": "IL", "iran": "IR", "iraq": "IQ", "afghanistan": "AF",
		"saudi arabia": "SA", "taiwan": "TW", "brazil": "BR",
		"venezuela": "VE", "cuba": "CU", "australia": "AU", "poland": "PL",
		"turkey": "TR", "egypt": "EG", "nigeria": "NG", "south africa": "ZA",
		"pakistan": "PK", "vietnam": "VN", "philippines": "PH",
	}
}

func defaultPoliticians() []Entity {
	return []Entity{
		{Canonical: "Joe Biden", Aliases: []string{"president biden", "biden administration"}},
		{Canonical: "Kamala Harris", Aliases: []string{"vice president harris"}},
		{Canonical: "Donald Trump", Aliases: []string{"president trump", "trump administration"}},
		{Canonical: "Gavin Newsom", Aliases: []string{"governor newsom"}},
		{Canonical: "Greg Abbott", Aliases: []string{"governor abbott"}},
		{Canonical: "Ron DeSantis", Aliases: []string{"governor desantis"}},
		{Canonical: "Chuck Schumer", Aliases: []string{"senator schumer", "majority leader schumer"}},
		{Canonical: "Mitch McConnell", Aliases: []string{"senator mcconnell"}},
		{Canonical: "Alexandria Ocasio-Cortez", Aliases: []string{"aoc", "rep. ocasio-cortez"}},
		{Canonical: "Bernie Sanders", Aliases: []string{"senator sanders"}},
		{Canonical: "Elizabeth Warren", Aliases: []string{"senator warren"}},
		{Canonical: "Mike Johnson", Aliases: []string{"speaker johnson"}},
	}
}

func defaultOrganizations() []Entity {
	return []Entity{
		{Canonical: "Environmental Protection Agency", Aliases: []string{"epa"}},
		{Canonical: "Department of Justice", Aliases: []string{"doj", "justice department"}},
		{Canonical: "Federal Reserve", Aliases: []string{"the fed"}},
		{Canonical: "Supreme Court", Aliases: []string{"scotus"}},
		{Canonical: "American Civil Liberties Union", Aliases: []string{"aclu"}},
		{Canonical: "National Rifle Association", Aliases: []string{"nra"}},
		{Canonical: "Planned Parenthood", Aliases: nil},
		{Canonical: "Sierra Club", Aliases: nil},
		{Canonical: "AFL-CIO", Aliases: nil},
		{Canonical: "Chamber of Commerce", Aliases: []string{"u.s. chamber"}},
		{Canonical: "Centers for Disease Control", Aliases: []string{"cdc"}},
		{Canonical: "Immigration and Customs Enforcement", Aliases: []string{"ice agents"}},
	}
}

func defaultLegislation() []Entity {
	return []Entity{
		{Canonical: "Affordable Care Act", Aliases: []string{"obamacare", "aca"}},
		{Canonical: "Inflation Reduction Act", Aliases: nil},
		{Canonical: "Voting Rights Act", Aliases: nil},
		{Canonical: "Clean Air Act", Aliases: nil},
		{Canonical: "Farm Bill", Aliases: nil},
		{Canonical: "National Defense Authorization Act", Aliases: []string{"ndaa"}},
		{Canonical: "CHIPS Act", Aliases: []string{"chips and science act"}},
		{Canonical: "Infrastructure Investment and Jobs Act", Aliases: []string{"bipartisan infrastructure law"}},
		{Canonical: "Title 42", Aliases: nil},
		{Canonical: "Second Amendment", Aliases: nil},
	}
}
