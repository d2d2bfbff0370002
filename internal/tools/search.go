package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/scout/internal/search"
	"github.com/HendryAvila/scout/internal/textutil"
)

// searchVariant describes how one search tool shapes its query and output.
type searchVariant struct {
	name        string
	description string

	suffix string
	topic  string
	days   int

	header         string
	label          string
	contentPrefix  string
	defaultContent string
	snippet        int
	empty          string
	errPrefix      string
}

var (
	webSearch = searchVariant{
		name: "search_web",
		description: "Search the web for information using Tavily. " +
			"⚠️ ONLY use when user explicitly asks to search, research, find, or investigate a specific topic. " +
			"DO NOT use for unclear inputs, single words/numbers without context, or general questions. " +
			"Input should be a clear, descriptive search query string. " +
			"Returns top search results with titles, URLs, and content snippets.",
		topic:          search.TopicGeneral,
		header:         "Search results for '%s':\n\n",
		label:          "URL",
		defaultContent: "No content available",
		snippet:        300,
		empty:          "No results found for query: %s",
		errPrefix:      "Error performing search: ",
	}

	githubSearch = searchVariant{
		name: "search_github",
		description: "Search GitHub for repositories, projects, and code. " +
			"⚠️ ONLY use when user explicitly asks to search GitHub or find open-source projects. " +
			"Input should be a search query (e.g., 'langchain python', 'vector database'). " +
			"Returns GitHub repositories with descriptions.",
		suffix:         " site:github.com",
		topic:          search.TopicGeneral,
		header:         "GitHub search results for '%s':\n\n",
		label:          "Repository",
		defaultContent: "No description available",
		snippet:        200,
		empty:          "No GitHub results found for: %s",
		errPrefix:      "Error searching GitHub: ",
	}

	arxivSearch = searchVariant{
		name: "search_arxiv",
		description: "Search arXiv for academic papers and research. " +
			"⚠️ ONLY use when user explicitly asks for papers, research, or academic publications. " +
			"Input should be a search query related to research topics. " +
			"Returns paper titles, URLs, and abstracts.",
		suffix:         " site:arxiv.org",
		topic:          search.TopicGeneral,
		header:         "arXiv search results for '%s':\n\n",
		label:          "Paper",
		contentPrefix:  "Abstract: ",
		defaultContent: "No abstract available",
		snippet:        250,
		empty:          "No arXiv papers found for: %s",
		errPrefix:      "Error searching arXiv: ",
	}

	newsSearch = searchVariant{
		name: "search_news",
		description: "Search for recent news articles (last 7 days). " +
			"⚠️ ONLY use when user explicitly asks for news, latest updates, or current events. " +
			"Input should be a search query for news topics. " +
			"Returns recent news articles with titles and summaries.",
		topic:          search.TopicNews,
		days:           7,
		header:         "Recent news for '%s':\n\n",
		label:          "Source",
		defaultContent: "No content available",
		snippet:        250,
		empty:          "No recent news found for: %s",
		errPrefix:      "Error searching news: ",
	}
)

// SearchTool runs one flavour of web search through a provider.
type SearchTool struct {
	Spec
	provider search.Provider
	v        searchVariant
}

func newSearchTool(p search.Provider, v searchVariant) *SearchTool {
	return &SearchTool{Spec: NewSpec(KindSearch, v.name, v.description), provider: p, v: v}
}

// NewSearchWebTool creates search_web.
func NewSearchWebTool(p search.Provider) *SearchTool { return newSearchTool(p, webSearch) }

// NewSearchGitHubTool creates search_github.
func NewSearchGitHubTool(p search.Provider) *SearchTool { return newSearchTool(p, githubSearch) }

// NewSearchArxivTool creates search_arxiv.
func NewSearchArxivTool(p search.Provider) *SearchTool { return newSearchTool(p, arxivSearch) }

// NewSearchNewsTool creates search_news.
func NewSearchNewsTool(p search.Provider) *SearchTool { return newSearchTool(p, newsSearch) }

// SearchTools returns the four search tools over one provider.
func SearchTools(p search.Provider) []Tool {
	return []Tool{
		NewSearchWebTool(p),
		NewSearchGitHubTool(p),
		NewSearchArxivTool(p),
		NewSearchNewsTool(p),
	}
}

// Invoke searches for input and formats the results.
func (t *SearchTool) Invoke(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	results, err := t.provider.Search(ctx, search.Query{
		Text:       query + t.v.suffix,
		MaxResults: search.DefaultMaxResults,
		Topic:      t.v.topic,
		Days:       t.v.days,
	})
	if err != nil {
		return "", Fail(t.v.errPrefix+err.Error(), err)
	}
	if len(results) == 0 {
		return fmt.Sprintf(t.v.empty, query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, t.v.header, query)
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		content := r.Content
		if content == "" {
			content = t.v.defaultContent
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		fmt.Fprintf(&b, "   %s: %s\n", t.v.label, r.URL)
		fmt.Fprintf(&b, "   %s%s\n\n", t.v.contentPrefix, textutil.Truncate(content, t.v.snippet))
	}
	return b.String(), nil
}
