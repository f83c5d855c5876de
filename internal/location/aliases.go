// internal/location/aliases.go
package location

// aliasTable maps a canonical key to the spellings, abbreviations and
// Portuguese/English variants that refer to the same place.
var aliasTable = map[string][]string{
	// states
	"acre":                {"acre", "ac"},
	"alagoas":             {"alagoas", "al"},
	"amapa":               {"amapá", "amapa", "ap"},
	"amazonas":            {"amazonas", "am"},
	"bahia":               {"bahia", "ba"},
	"ceara":               {"ceará", "ceara", "ce"},
	"distrito_federal":    {"distrito federal", "federal district", "df"},
	"espirito_santo":      {"espírito santo", "espirito santo", "es"},
	"goias":               {"goiás", "goias", "go"},
	"maranhao":            {"maranhão", "maranhao", "ma"},
	"mato_grosso":         {"mato grosso", "mt"},
	"mato_grosso_do_sul":  {"mato grosso do sul", "ms"},
	"minas_gerais":        {"minas gerais", "mg"},
	"para":                {"pará", "para", "pa"},
	"paraiba":             {"paraíba", "paraiba", "pb"},
	"parana":              {"paraná", "parana", "pr"},
	"pernambuco":          {"pernambuco", "pe"},
	"piaui":               {"piauí", "piaui", "pi"},
	"rio_de_janeiro":      {"rio de janeiro", "rj", "rio"},
	"rio_grande_do_norte": {"rio grande do norte", "rn"},
	"rio_grande_do_sul":   {"rio grande do sul", "rs"},
	"rondonia":            {"rondônia", "rondonia", "ro"},
	"roraima":             {"roraima", "rr"},
	"santa_catarina":      {"santa catarina", "sc"},
	"sao_paulo":           {"são paulo", "sao paulo", "sp"},
	"sergipe":             {"sergipe", "se"},
	"tocantins":           {"tocantins", "to"},

	// cities
	"belo_horizonte":      {"belo horizonte", "bh", "bhz"},
	"brasilia":            {"brasília", "brasilia", "bsb"},
	"curitiba":            {"curitiba", "cwb"},
	"florianopolis":       {"florianópolis", "florianopolis", "floripa"},
	"fortaleza":           {"fortaleza", "for"},
	"porto_alegre":        {"porto alegre", "poa"},
	"recife":              {"recife", "rec"},
	"salvador":            {"salvador", "ssa"},
	"sao_jose_dos_campos": {"são josé dos campos", "sao jose dos campos", "sjc"},
	"campinas":            {"campinas", "cps"},
	"goiania":             {"goiânia", "goiania", "gyn"},
	"manaus":              {"manaus", "mao"},
	"belem":               {"belém", "belem", "bel"},
	"vitoria":             {"vitória", "vitoria", "vix"},
}

// aliasIndex resolves any canonical spelling (key or alias) to the keys that list it.
var aliasIndex = buildAliasIndex(aliasTable)

func buildAliasIndex(table map[string][]string) map[string][]string {
	index := make(map[string][]string, len(table)*3)
	link := func(spelling, key string) {
		n := Normalize(spelling)
		for _, existing := range index[n] {
			if existing == key {
				return
			}
		}
		index[n] = append(index[n], key)
	}
	for key, aliases := range table {
		link(key, key)
		for _, alias := range aliases {
			link(alias, key)
		}
	}
	return index
}
