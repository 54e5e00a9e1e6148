package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

// Export nội dung một trường của meeting thành file text tải về.
// format=paged chia trang cố định, ngăn bằng form feed, có footer số trang.

const exportPageLines = 40

// PaginateText chia text thành các trang exportPageLines dòng, ngăn cách
// bằng form feed, mỗi trang có footer "--- Trang i/n ---"
func PaginateText(text string) string {
	lines := strings.Split(text, "\n")
	var pages [][]string
	for start := 0; start < len(lines); start += exportPageLines {
		end := start + exportPageLines
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]string{{}}
	}

	var sb strings.Builder
	for i, page := range pages {
		if i > 0 {
			sb.WriteString("\f")
		}
		sb.WriteString(strings.Join(page, "\n"))
		sb.WriteString(fmt.Sprintf("\n\n--- Trang %d/%d ---\n", i+1, len(pages)))
	}
	return sb.String()
}

func ExportMeetingField(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meeting, ok := loadOwnedMeeting(c, userID)
	if !ok {
		return
	}

	field := c.Query("field")
	var content string
	switch field {
	case "transcript":
		content = meeting.Transcript
	case "summary":
		content = meeting.Summary
	case "action_items":
		content = meeting.ActionItems
	case "minutes":
		content = meeting.Minutes
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "field phải là transcript/summary/action_items/minutes"})
		return
	}
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Meeting chưa có nội dung " + field})
		return
	}

	if c.Query("format") == "paged" {
		content = PaginateText(content)
	}

	title := meeting.Title
	if title == "" {
		title = "meeting"
	}
	filename := fmt.Sprintf("%s-%s.txt", slug.Make(title), field)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}
