package eutils

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// xmlTagRe matches XML/HTML tags for stripping from innerxml content.
var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

// XML structures for parsing PubMed EFetch responses.

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    xmlPMID    `xml:"PMID"`
	Article xmlArticle `xml:"Article"`
}

type xmlPMID struct {
	Value string `xml:",chardata"`
}

type xmlArticle struct {
	AuthorList xmlAuthorList `xml:"AuthorList"`
}

// xmlInnerContent captures innerxml so text inside nested markup such as
// <i>, <sup> or <b> is kept.
type xmlInnerContent struct {
	Inner string `xml:",innerxml"`
}

type xmlAuthorList struct {
	Authors []xmlAuthor `xml:"Author"`
}

type xmlAuthor struct {
	LastName        string               `xml:"LastName"`
	ForeName        string               `xml:"ForeName"`
	CollectiveName  string               `xml:"CollectiveName"`
	AffiliationInfo []xmlAffiliationInfo `xml:"AffiliationInfo"`
}

type xmlAffiliationInfo struct {
	Affiliations []xmlInnerContent `xml:"Affiliation"`
	Identifiers  []string          `xml:"Identifier"`
}

// FetchHistory retrieves one page of full records from a search kept on
// the NCBI history server.
func (c *Client) FetchHistory(ctx context.Context, page HistoryPage) ([]Article, error) {
	if page.WebEnv == "" {
		return nil, fmt.Errorf("WebEnv is required")
	}
	if page.QueryKey == "" {
		return nil, fmt.Errorf("query key is required")
	}
	if page.Start < 0 {
		return nil, fmt.Errorf("retstart cannot be negative: %d", page.Start)
	}
	if page.Max <= 0 {
		return nil, fmt.Errorf("retmax must be positive: %d", page.Max)
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("WebEnv", page.WebEnv)
	params.Set("query_key", page.QueryKey)
	params.Set("retstart", strconv.Itoa(page.Start))
	params.Set("retmax", strconv.Itoa(page.Max))
	params.Set("rettype", "xml")
	params.Set("retmode", "xml")

	body, err := c.DoGet(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}

	return parseArticles(body)
}

// parseArticles parses PubMed XML into Article structs.
func parseArticles(data []byte) ([]Article, error) {
	var articleSet pubmedArticleSet
	if err := xml.Unmarshal(data, &articleSet); err != nil {
		return nil, fmt.Errorf("%w: parsing PubMed XML: %v", ErrMalformedResponse, err)
	}

	articles := make([]Article, 0, len(articleSet.Articles))
	for _, pa := range articleSet.Articles {
		articles = append(articles, convertArticle(pa))
	}

	return articles, nil
}

// convertArticle keeps every listed author, ValidYN="N" ones included.
func convertArticle(pa pubmedArticle) Article {
	mc := pa.Citation

	a := Article{
		PMID:    strings.TrimSpace(mc.PMID.Value),
		Authors: []Author{},
	}

	for _, au := range mc.Article.AuthorList.Authors {
		author := Author{}
		if au.CollectiveName != "" {
			author.CollectiveName = au.CollectiveName
		} else {
			author.LastName = au.LastName
			author.ForeName = au.ForeName
		}
		for _, ai := range au.AffiliationInfo {
			author.AffiliationInfo = append(author.AffiliationInfo, convertAffiliationInfo(ai)...)
		}
		a.Authors = append(a.Authors, author)
	}

	return a
}

// convertAffiliationInfo flattens one AffiliationInfo element. An element
// without Affiliation children still yields one entry, with empty text, so
// callers can see that the author had affiliation info of an unknown shape.
func convertAffiliationInfo(ai xmlAffiliationInfo) []AffiliationInfo {
	var ids []string
	for _, id := range ai.Identifiers {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ai.Affiliations) == 0 {
		return []AffiliationInfo{{Identifiers: ids}}
	}
	out := make([]AffiliationInfo, 0, len(ai.Affiliations))
	for _, aff := range ai.Affiliations {
		out = append(out, AffiliationInfo{
			Affiliation: cleanInnerXML(aff.Inner),
			Identifiers: ids,
		})
	}
	return out
}

// cleanInnerXML strips XML tags and decodes HTML entities from innerxml content.
func cleanInnerXML(s string) string {
	stripped := xmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(stripped))
}
