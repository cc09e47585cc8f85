package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/state"
)

// Renderer formats store contents for the terminal.
type Renderer struct {
	styles Styles
}

// NewRenderer builds a Renderer for the named theme.
func NewRenderer(themeName string) Renderer {
	return Renderer{styles: GetTheme(themeName).Styles()}
}

// PostList renders one line per post, in the given order.
func (r Renderer) PostList(posts []forum.Post) string {
	if len(posts) == 0 {
		return r.styles.MutedText.Render("no posts")
	}
	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, r.postLine(p))
	}
	return strings.Join(lines, "\n")
}

func (r Renderer) postLine(p forum.Post) string {
	score := fmt.Sprintf("%4d", p.Score)
	if p.LikedByCurrentUser {
		score = r.styles.SuccessText.Render(score + " ♥")
	} else {
		score = r.styles.MutedText.Render(score + "  ")
	}
	parts := []string{
		score,
		r.styles.Title.Render(oneLine(p.Title)),
		r.styles.FaintText.Render(fmt.Sprintf("%d comments", p.CommentCount)),
		r.styles.FaintText.Render(formatDate(p.ParsedCreatedAt())),
		r.styles.FaintText.Render(p.ID),
	}
	if tags := r.tags(p.Tags); tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, "  ")
}

// PostDetail renders a post with its comment thread. viewer decides whether
// the post is marked as editable.
func (r Renderer) PostDetail(post forum.PostWithComments, viewer state.Profile) string {
	header := r.styles.Title.Render(oneLine(post.Title))
	if viewer.CanModify(post.Post) {
		header += " " + r.styles.WarningText.Render("[editable]")
	}

	meta := fmt.Sprintf("by %s · %s · score %d", orDash(post.Username), formatDate(post.ParsedCreatedAt()), post.Score)
	if post.LikedByCurrentUser {
		meta += " · liked"
	}

	blocks := []string{header, r.styles.MutedText.Render(meta)}
	if tags := r.tags(post.Tags); tags != "" {
		blocks = append(blocks, tags)
	}
	if desc := strings.TrimSpace(post.Description); desc != "" {
		blocks = append(blocks, "", r.styles.Text.Render(desc))
	}

	blocks = append(blocks, "", r.styles.Title.Render(fmt.Sprintf("Comments (%d)", post.CommentCount)))
	if len(post.Comments) == 0 {
		blocks = append(blocks, r.styles.MutedText.Render("no comments yet"))
	}
	for _, c := range post.Comments {
		byline := fmt.Sprintf("%s · %s · %s", orDash(c.Username), formatDate(c.ParsedCreatedAt()), c.ID)
		blocks = append(blocks,
			r.styles.FaintText.Render(byline),
			r.styles.Comment.Render(c.Comment),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// Profile renders the signed-in user.
func (r Renderer) Profile(p state.Profile) string {
	role := r.styles.MutedText.Render(string(p.Role))
	if p.Role == forum.RoleAdmin {
		role = r.styles.WarningText.Render(string(p.Role))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		r.styles.Title.Render(p.User.Username)+" "+role,
		r.styles.MutedText.Render(orDash(p.User.Email)),
		r.styles.FaintText.Render(p.User.ID),
	)
}

// Status renders a fetch status badge for a cache key.
func (r Renderer) Status(key string, st state.FetchState) string {
	name := st.Status.String()
	line := key + ": " + r.styles.StatusStyle(name).Render(name)
	if st.Err != nil {
		line += " " + r.styles.DangerText.Render(st.Err.Error())
	}
	return line
}

// Error renders the user-facing messages carried by err, one per line.
func (r Renderer) Error(err error) string {
	messages := forum.Messages(err)
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = r.styles.DangerText.Render("✗ " + m)
	}
	return strings.Join(lines, "\n")
}

func (r Renderer) tags(tags []string) string {
	var out []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, r.styles.Tag.Render("#"+t))
		}
	}
	return strings.Join(out, " ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
