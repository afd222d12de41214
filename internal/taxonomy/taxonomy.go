// Package taxonomy defines the fixed, closed set of report categories and
// the mapping rules that coerce free-text category names into it.
package taxonomy

import (
	"regexp"
	"strings"
)

// Other is the default category for anything that cannot be classified.
const Other = "Other"

// Main category names.
const (
	RoadInfrastructure = "Road & Infrastructure"
	WaterSewerage      = "Water & Sewerage"
	WasteManagement    = "Waste Management"
	StreetLighting     = "Street Lighting & Electrical"
	PublicSafety       = "Public Safety & Order"
)

// Category is an immutable taxonomy entry. Priority 1 is highest: lower
// numbers need less raw keyword strength to dominate in keyword scoring.
type Category struct {
	Name     string
	Keywords []string
	Priority int
}

// categories is the full taxonomy in fixed iteration order. Keyword lists
// drive both the keyword classifier and category-name remapping.
var categories = []Category{
	{
		Name:     RoadInfrastructure,
		Priority: 1,
		Keywords: []string{
			// Road surface issues
			"pothole", "potholes", "sinkhole", "hole in road", "road crack", "surface crack",
			"damaged road", "broken road", "uneven surface", "road erosion", "road collapse",
			"road subsidence", "worn pavement", "rough road", "bumpy road", "crater",
			"asphalt damage", "concrete crack", "pavement failure", "road deterioration",
			"surface depression", "road rut", "rutting", "alligator cracking", "edge cracking",

			// Footpath and sidewalk issues
			"broken footpath", "damaged sidewalk", "missing tiles", "crack on footpath",
			"uneven pavement", "trip hazard", "broken kerb", "damaged curb", "walkway damage",
			"pedestrian path", "footway", "pavement slab", "paving stone", "sidewalk repair",
			"footpath obstruction", "walkway blocked", "pedestrian safety",

			// Manholes and utilities on roads
			"manhole cover missing", "open manhole", "sunken manhole", "protruding manhole",
			"manhole cover displaced", "utility cover missing", "access cover", "drain cover",
			"inspection chamber", "utility access", "roadway opening", "street opening",

			// Road obstructions and debris
			"road blockage", "obstruction on road", "fallen tree on road", "road debris",
			"construction debris on road", "abandoned vehicle", "illegal parking on road",
			"roadway obstruction", "traffic obstruction", "vehicle breakdown", "cargo spill",
			"construction equipment", "barricade", "road closure", "lane blocked",

			// Bridge and structural infrastructure
			"bridge damage", "damaged bridge", "collapsed bridge", "structural failure",
			"damaged viaduct", "pier damage", "embankment breach", "retaining wall",
			"guardrail damage", "barrier damage", "overpass", "underpass", "tunnel damage",
			"infrastructure collapse", "structural crack", "foundation failure",

			// Road markings and signage infrastructure
			"faded road markings", "missing lane markings", "zebra crossing faded",
			"road sign damaged", "signpost bent", "traffic sign missing", "road paint",
			"lane divider", "center line", "edge line", "crosswalk marking",
		},
	},
	{
		Name:     WaterSewerage,
		Priority: 1,
		Keywords: []string{
			// Water leaks and bursts
			"water leak", "burst pipe", "pipe leak", "water main break", "pipeline leak",
			"pipeline burst", "water overflow", "flooding", "water logging", "standing water",
			"burst water main", "water gushing", "water spray", "pipe rupture", "water wastage",
			"supply line break", "distribution pipe", "service line", "water main", "hydrant leak",
			"valve leak", "meter leak", "connection leak", "joint failure", "pipe failure",

			// Sewage issues
			"sewage leak", "sewer leak", "raw sewage", "sewage overflow", "sewer blockage",
			"clogged sewer", "sewerage", "sewer line", "sewage line", "toilet overflow",
			"septic overflow", "waste water", "effluent", "sewage backup", "sewer backup",
			"manhole sewage", "sewage smell", "sewage on road", "sewage in drain",

			// Drainage problems
			"drain", "blocked drain", "clogged drain", "choked drain", "overflowing drain",
			"open drain", "damaged drain", "drain collapse", "garbage in drain",
			"drain cover missing", "drainage blockage", "waterlogged area", "storm drain",
			"surface drainage", "roadside drain", "kerb drain", "gutter", "channel",
			"culvert", "inlet blocked", "outlet blocked", "drainage pipe", "catch basin",
			"stormwater", "rainwater drainage", "surface water", "puddle", "water accumulation",

			// Sanitation facilities
			"public toilet", "unclean public toilet", "dirty urinal", "filthy restroom",
			"toilet block", "sanitation", "public health hazard", "foul smell", "bad odour",
			"restroom", "washroom", "lavatory", "public convenience", "comfort station",
			"toilet facility", "sanitary facility", "hygiene issue", "cleaning required",
		},
	},
	{
		Name:     WasteManagement,
		Priority: 1,
		Keywords: []string{
			// General waste
			"garbage", "trash", "rubbish", "refuse", "debris", "waste", "litter",
			"scattered waste", "dump", "dumping", "illegal dumping", "waste heap",
			"junk", "debris pile", "waste pile", "trash pile", "garbage pile",
			"littering", "fly tipping", "waste disposal", "garbage disposal",

			// Bins and collection
			"dustbin", "waste bin", "garbage bin", "overflowing bin", "broken bin",
			"full dustbin", "bin without lid", "collection point", "uncollected garbage",
			"missed collection", "no garbage pickup", "trash can", "waste container",
			"dumpster", "skip", "wheelie bin", "recycling bin", "compost bin",
			"bin collection", "waste collection", "garbage collection", "refuse collection",

			// Specific waste types
			"plastic waste", "construction debris", "medical waste", "e-waste",
			"organic waste pile", "burnt waste", "hazardous waste", "toxic waste",
			"food waste", "garden waste", "electronic waste", "battery waste",
			"chemical waste", "industrial waste", "demolition waste", "bulk waste",
			"white goods", "appliance disposal", "furniture dumping",

			// Locations and contexts
			"riverbank waste", "railway track garbage", "roadside dumping", "park litter",
			"beach litter", "market waste", "commercial waste", "household waste",
			"street cleaning", "litter picking", "waste segregation", "recycling issue",
		},
	},
	{
		Name:     StreetLighting,
		Priority: 2,
		Keywords: []string{
			// Street lights
			"street light", "streetlight", "lamp post", "light pole", "lighting pole",
			"flickering light", "broken light", "dark street", "no street lighting",
			"poor lighting", "nonworking light", "bulb out", "lamp not working",
			"street lamp", "public lighting", "road lighting", "pathway lighting",
			"led light", "sodium light", "halogen lamp", "fluorescent light",
			"light fixture", "luminaire", "lighting unit", "outdoor lighting",

			// Traffic signals
			"traffic light", "traffic signal", "signal failure", "red light not working",
			"green light failure", "broken traffic light", "signal malfunction",
			"traffic control", "pedestrian signal", "crossing signal", "stop light",
			"amber light", "signal timing", "signal box", "traffic controller",

			// Power issues
			"power outage", "power cut", "no electricity", "power failure", "voltage fluctuation",
			"blackout", "brownout", "electrical fault", "current failure", "supply failure",
			"electricity problem", "power supply", "electrical supply", "grid failure",
			"load shedding", "power interruption", "electrical outage",

			// Wiring and connections
			"exposed wire", "dangling wire", "loose wire", "faulty connection",
			"electrical cable", "overhead wire", "underground cable", "junction box",
			"electrical panel", "distribution box", "wire hanging", "cable fault",
			"insulation failure", "short circuit", "electrical hazard", "live wire",

			// Poles and infrastructure
			"electric pole", "utility pole", "fallen pole", "broken pole", "tilted pole",
			"leaning pole", "damaged pole", "telegraph pole", "power line pole",
			"transmission pole", "distribution pole", "pole foundation", "guy wire",

			// Transformers and equipment
			"transformer", "damaged transformer", "sparking transformer", "electrical equipment",
			"switchgear", "electrical cabinet", "meter box", "electrical meter",
			"power meter", "junction", "electrical joint", "insulator", "electrical fitting",
		},
	},
	{
		Name:     PublicSafety,
		Priority: 3,
		Keywords: []string{
			// Animals
			"stray dog", "animal menace", "dog bite", "stray cattle", "monkey menace",
			"dead animal", "animal carcass", "snake found", "wild animal", "street dog",
			"feral cat", "stray puppy", "rabid animal", "animal attack", "aggressive animal",
			"livestock on road", "cattle menace", "pig menace", "goat on road",
			"animal nuisance", "pet abandonment", "animal control", "animal removal",

			// Public nuisance behaviors
			"public nuisance", "open defecation", "public urination", "noise pollution",
			"loud music", "drug abuse", "public intoxication", "loitering", "vagrancy",
			"antisocial behavior", "disturbance", "public disorder", "harassment",
			"begging", "aggressive begging", "panhandling", "soliciting",

			// Illegal vendors and encroachment
			"illegal vendor", "unauthorized stall", "street vendor", "hawker",
			"roadside vendor", "pavement vendor", "illegal shop", "unauthorized shop",
			"vendor encroachment", "commercial encroachment", "market encroachment",
			"stall without permit", "unlicensed vendor", "mobile vendor",

			// Construction and encroachment
			"illegal construction", "unauthorized construction", "encroachment",
			"building violation", "zoning violation", "unauthorized structure",
			"illegal building", "unpermitted construction", "code violation",
			"setback violation", "height violation", "occupancy violation",

			// Signage and advertising violations
			"illegal hoarding", "illegal banner", "unauthorized billboard",
			"illegal advertising", "poster defacement", "wall advertising",
			"unauthorized signage", "banner without permit", "hoarding violation",
			"outdoor advertising violation", "sign violation",

			// Vandalism and property damage
			"vandalism", "graffiti", "property damage", "defacement", "wall writing",
			"public property damage", "facility damage", "equipment damage",
			"destruction of property", "malicious damage", "civic property damage",

			// Safety hazards
			"unsafe building", "gas leak", "chemical spill", "industrial accident",
			"public safety hazard", "fire hazard", "electrical hazard", "structural hazard",
			"environmental hazard", "toxic exposure", "air pollution", "water contamination",
			"industrial pollution", "factory emission", "chemical leak", "gas escape",
		},
	},
	{
		Name:     Other,
		Priority: 4,
		Keywords: []string{
			// Catch-all terms
			"other", "miscellaneous", "general issue", "undefined", "unclear",
			"mixed issues", "multiple problems", "complex issue", "unclassified",

			// Issues that do not fit the main categories
			"community center", "park maintenance", "playground", "sports facility",
			"cemetery", "crematorium", "market maintenance", "bus stop",
			"public bench", "statue maintenance", "monument", "public art",

			// Administrative issues
			"permit issue", "documentation", "certificate", "license problem",
			"government office", "public service", "information request",

			// Special cases requiring manual review
			"flagged content", "inappropriate report", "spam", "test report",
			"duplicate report", "unclear image", "requires review",
		},
	},
}

// Categories returns the full taxonomy in its fixed iteration order.
func Categories() []Category {
	return categories
}

// Names returns the taxonomy category names in fixed order.
func Names() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// IsValid reports whether name is an exact member of the taxonomy.
func IsValid(name string) bool {
	for _, c := range categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// namePatterns map common free-text variations onto taxonomy names when
// neither an exact match nor a keyword containment match fires.
var namePatterns = []struct {
	category string
	patterns []*regexp.Regexp
}{
	{RoadInfrastructure, compileAll(
		`road`, `street`, `pavement`, `footpath`, `sidewalk`, `bridge`,
		`pothole`, `manhole`, `infrastructure`, `construction`,
	)},
	{WaterSewerage, compileAll(
		`water`, `sewer`, `drain`, `pipe`, `leak`, `flood`, `sewage`, `toilet`,
	)},
	{WasteManagement, compileAll(
		`garbage`, `waste`, `trash`, `bin`, `dump`, `litter`, `refuse`,
	)},
	{StreetLighting, compileAll(
		`light`, `electric`, `power`, `lamp`, `signal`, `pole`, `wire`,
	)},
	{PublicSafety, compileAll(
		`animal`, `dog`, `safety`, `illegal`, `vendor`, `nuisance`, `hazard`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// MapToStandard coerces a free-text category name into the taxonomy.
// Resolution order: exact name match, keyword containment, name patterns,
// then Other. Unrecognized names are remapped rather than rejected so that
// model output drift never produces an out-of-taxonomy value.
func MapToStandard(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Other
	}

	for _, c := range categories {
		if normalized == strings.ToLower(c.Name) {
			return c.Name
		}
	}

	for _, c := range categories {
		for _, kw := range c.Keywords {
			if strings.Contains(normalized, strings.ToLower(kw)) {
				return c.Name
			}
		}
	}

	for _, np := range namePatterns {
		for _, re := range np.patterns {
			if re.MatchString(normalized) {
				return np.category
			}
		}
	}

	return Other
}

// PathKeywords are short tokens used to classify an image by its URL or
// file path when the remote model is unavailable.
var PathKeywords = []struct {
	Category string
	Keywords []string
}{
	{RoadInfrastructure, []string{"road", "pothole", "crack", "bridge", "street", "pavement", "infrastructure"}},
	{WaterSewerage, []string{"water", "leak", "pipe", "drain", "sewer", "flood", "sewage"}},
	{WasteManagement, []string{"garbage", "trash", "waste", "dump", "litter", "bin"}},
	{StreetLighting, []string{"light", "lamp", "electric", "power", "pole", "wire"}},
	{PublicSafety, []string{"safety", "animal", "dog", "illegal", "vendor", "hazard"}},
}
