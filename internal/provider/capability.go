package provider

// nativeSearch records which providers run web search inside the model
// call itself. Agents on these providers skip the explicit search
// enrichment step; everyone else goes through the search collaborator.
var nativeSearch = map[string]bool{
	"openai":     true,
	"gemini":     true,
	"anthropic":  true,
	"deepseek":   false,
	"openrouter": false,
}

// HasNativeSearch consults the static capability table.
func HasNativeSearch(providerName string) bool {
	return nativeSearch[providerName]
}
