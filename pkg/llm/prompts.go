package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultPromptTokenBudget leaves room for the answer within a 32k context.
const DefaultPromptTokenBudget = 32000 - 1500

// ErrPromptTooLong is returned when page content exceeds the prompt budget.
var ErrPromptTooLong = errors.New("prompt exceeds token budget")

const navigatePrompt = "Provide detailed instructions to effectively navigate and utilize the features of a website " +
	"based on the provided HTML code. Instructions must include web links from the provided HTML code, for example: " +
	"[Start Free Trial](https://clo3d.com). Instructions must exclude any html tags. " +
	"The url of the website is %s. ###HTML Code###: %s"

const titlePrompt = "Generate a title for a web page based on the following content: %s"

var bareLinkLabel = regexp.MustCompile(`\[https.*\]`)

var linkBrackets = strings.NewReplacer("[", "", "]", "", "(", "[", ")", "]")

var titleNoise = strings.NewReplacer(`"`, "", "*", "", "Title: ", "", "#", "")

// CheckBudget returns the token count of content, or ErrPromptTooLong when
// it does not fit the client's budget.
func (c *Client) CheckBudget(content string) (int, error) {
	n := c.tokens.Count(content)
	budget := c.budget
	if budget <= 0 {
		budget = DefaultPromptTokenBudget
	}
	if n >= budget {
		return n, fmt.Errorf("%w: %d tokens, budget %d", ErrPromptTooLong, n, budget)
	}
	return n, nil
}

// Navigate asks for navigation instructions for a page, keeping its links.
func (c *Client) Navigate(ctx context.Context, content, pageURL string) (string, error) {
	if _, err := c.CheckBudget(content); err != nil {
		return "", fmt.Errorf("navigation for %s: %w", pageURL, err)
	}
	out, err := c.Chat(ctx, fmt.Sprintf(navigatePrompt, pageURL, content), 0, 3000)
	if err != nil {
		return "", fmt.Errorf("navigation for %s: %w", pageURL, err)
	}
	return FormatLinks(CleanOutput(out)), nil
}

// Title asks for a page title from its generated guide.
func (c *Client) Title(ctx context.Context, content string) (string, error) {
	if _, err := c.CheckBudget(content); err != nil {
		return "", err
	}
	out, err := c.Chat(ctx, fmt.Sprintf(titlePrompt, content), 0.7, 50)
	if err != nil {
		return "", err
	}
	return CleanTitle(CleanOutput(out)), nil
}

// FormatLinks rewrites markdown links [label](url) as label[url] and drops
// labels that are themselves URLs.
func FormatLinks(s string) string {
	s = bareLinkLabel.ReplaceAllString(s, "")
	return linkBrackets.Replace(s)
}

// CleanTitle removes the quoting and heading markup models wrap titles in.
func CleanTitle(s string) string {
	return strings.TrimSpace(titleNoise.Replace(s))
}
