package routing

import "strings"

const DefaultFacility = "Nabha Civil Hospital"

// Table maps a village to the care facility that serves it when no doctor
// can be matched dynamically. It is built once and never mutated, so a
// single instance is shared by reference across request goroutines.
type Table struct {
	byVillage       map[string]string
	defaultFacility string
}

// NewTable indexes facility → villages. Village names are matched
// case-insensitively; a village listed under two facilities keeps the last.
func NewTable(defaultFacility string, facilities map[string][]string) *Table {
	if strings.TrimSpace(defaultFacility) == "" {
		defaultFacility = DefaultFacility
	}
	t := &Table{
		byVillage:       make(map[string]string),
		defaultFacility: defaultFacility,
	}
	for facility, villages := range facilities {
		for _, v := range villages {
			t.byVillage[normalize(v)] = facility
		}
	}
	return t
}

// FacilityFor returns the facility for village, or the default facility
// for blank and unmapped villages.
func (t *Table) FacilityFor(village string) string {
	if f, ok := t.byVillage[normalize(village)]; ok {
		return f
	}
	return t.defaultFacility
}

// Mapped reports whether village has an explicit entry.
func (t *Table) Mapped(village string) bool {
	_, ok := t.byVillage[normalize(village)]
	return ok
}

func (t *Table) Default() string { return t.defaultFacility }

// Villages lists every mapped village of facility in lower case.
func (t *Table) Villages(facility string) []string {
	var out []string
	for v, f := range t.byVillage {
		if f == facility {
			out = append(out, v)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NabhaFacilities is the Nabha block referral map used when no other table
// is configured.
var NabhaFacilities = map[string][]string{
	"Nabha Civil Hospital": {
		"Abhepur", "Achal", "Agaul", "Ageta", "Ageti", "Ajnauda Kalan", "Ajnauda Khurd",
		"Akalgarh", "Alhoran", "Alipur", "Allowal", "Babarpur", "Banera Kalan", "Banera Khurd",
		"Barhe", "Bauran Kalan", "Bauran Khurd", "Bazidpur", "Bazidri", "Behbalpur",
		"Bhari Panechan", "Bhilowal", "Bhojo Majri", "Bhore", "Bina Heri", "Bir Agaul", "Bir Bauran",
		"Bir Bhadson", "Bir Dosanjhan", "Birarhwal", "Birdhano", "Bishangarh", "Bishanpura",
		"Bugga Khurd", "Chahal", "Chaswal", "Chathe", "Chhaju Bhatt", "Chhana Nathuwali",
	},
	"PHC Block 1": {
		"Choudhri Majra", "Dakaunda", "Dandrala Dhindsa", "Dandrala Kharaur", "Dargapur",
		"Dewangarh", "Dhanaura", "Dhanauri", "Dhangera", "Dharoki", "Dhingi", "Dhundewal",
		"Dittupur Jattan", "Doda", "Duladi", "Faizgarh", "Faridpur", "Fatehpur", "Gadaya",
		"Galwati", "Ghamrouda", "Ghaniawal", "Ghanurki", "Ghunder", "Gobindgarh Chhanna",
		"Gobindpura", "Gujarheri", "Gunike", "Gurditpura", "Hakimpur", "Halla", "Halotali",
		"Hari Nagar", "Harigarh", "Hassanpur", "Hiana Kalan", "Hiana Khurd", "Ichhewal",
		"Jasso Majra", "Jatiwal",
	},
	"PHC Block 2": {
		"Jhambali Khas", "Jhambali Sahni", "Jindalpur", "Kaidupur", "Kakrala", "Kalar Majri",
		"Kalhana", "Kalhe Majra", "Kalsana", "Kameli", "Kansuha Kalan", "Kansuha Khurd",
		"Kaul", "Khanora", "Kheri Jattan", "Khizerpur", "Khokh", "Khurd", "Kishangarh", "Kot Kalan",
		"Kot Khurd", "Kotli", "Kularan", "Labana Karmoo", "Labana Teku", "Ladha Heri", "Lalauda",
		"Lohar Majra", "Lopa", "Lout", "Malewal", "Malkon", "Mandaur", "Mangewal", "Mansurpur",
		"Matourda", "Mehas", "Mohal Gawara", "Mungo",
	},
	"PHC Block 3": {
		"Nabha", "Nanoki", "Nanowal", "Naraingarh", "Narmana", "Nauhra", "Paharpur",
		"Pahlia Kalan", "Pahlia Khurd", "Paidan", "Pednni Khurd", "Raimal Majri", "Raisal",
		"Raj Garh", "Rajpura", "Ramgarh", "Ramgarh Chhanna", "Rampur Sahiewal", "Ranjitgarh",
		"Ranno", "Rohta", "Rohti Basta Singh", "Rohti Chhanna", "Rohti Khas", "Rohti Mouran",
		"Sadhnauli", "Sadho Heri", "Sahauli", "Sakohan", "Sakrali", "Saluwala", "Sangatpura",
		"Sauja", "Shahpur", "Shamaspur", "Shamla", "Sheikhpura", "Shivgarh", "Simbhron",
		"Siri Nagar", "Sudhewal", "Sukhewal", "Suraajpur", "Tarkheri Kalan", "Tarkheri Khurd",
		"Thuhi", "Todarwal", "Tohra", "Tungan", "Udha", "Uplan",
	},
}
