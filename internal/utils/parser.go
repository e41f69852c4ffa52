package utils

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"

	"github.com/user/dreadscale/internal/model"
)

var (
	reYear       = regexp.MustCompile(`\((\d{4})\)`)
	reBareYear   = regexp.MustCompile(`^\d{4}$`)
	reIMDbID     = regexp.MustCompile(`tt\d+`)
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9]`)
	reIMDbTitle  = regexp.MustCompile(`/title/(tt\d+)`)
	titleFolding = cases.Fold()
)

// ExtractYear 从文本中提取 "(YYYY)" 形式的年份
func ExtractYear(text string) string {
	if m := reYear.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractIMDbID 从文本中提取 IMDb 编号（tt 开头）
func ExtractIMDbID(text string) string {
	return reIMDbID.FindString(text)
}

// CleanImportTitle 去掉标题中的年份括号和 IMDb 编号，合并空格
func CleanImportTitle(title string) string {
	title = reYear.ReplaceAllString(title, " ")
	title = reIMDbID.ReplaceAllString(title, " ")
	return strings.Join(strings.Fields(title), " ")
}

// ParseImport 解析导入内容，HTML 走 goquery，其余按文本/CSV 处理
func ParseImport(content string) ([]model.ImportEntry, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "<") {
		return ParseWatchlistHTML(strings.NewReader(trimmed))
	}
	return ParseWatchlistText(content), nil
}

// ParseWatchlistText 解析纯文本或 CSV 片单（IMDb、Letterboxd 导出等）
// 首行包含 "title" 时视为表头跳过；标题少于 2 个字符的行丢弃。
func ParseWatchlistText(text string) []model.ImportEntry {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return nil
	}

	titleCol, yearCol := -1, -1
	start := 0
	if strings.Contains(strings.ToLower(lines[0]), "title") {
		start = 1
		if strings.Contains(lines[0], ",") {
			for i, name := range splitCSVLine(lines[0]) {
				switch strings.ToLower(name) {
				case "title", "name":
					if titleCol < 0 {
						titleCol = i
					}
				case "year":
					yearCol = i
				}
			}
		}
	}

	var entries []model.ImportEntry
	for _, raw := range lines[start:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var entry model.ImportEntry
		if strings.Contains(line, ",") {
			parts := splitCSVLine(line)
			if len(parts) < 2 {
				continue
			}
			joined := strings.Join(parts, " ")
			title := ""
			if titleCol >= 0 && titleCol < len(parts) {
				title = parts[titleCol]
			}
			if title == "" {
				title = parts[0]
			}
			if title == "" {
				title = parts[1]
			}
			entry = model.ImportEntry{
				Title:  title,
				Year:   ExtractYear(joined),
				IMDbID: ExtractIMDbID(joined),
			}
			if entry.Year == "" && yearCol >= 0 && yearCol < len(parts) && reBareYear.MatchString(parts[yearCol]) {
				entry.Year = parts[yearCol]
			}
		} else {
			entry = model.ImportEntry{
				Title:  line,
				Year:   ExtractYear(line),
				IMDbID: ExtractIMDbID(line),
			}
		}

		entry.Title = CleanImportTitle(entry.Title)
		if utf8.RuneCountInString(entry.Title) > 1 {
			entries = append(entries, entry)
		}
	}
	return entries
}

// ParseWatchlistHTML 解析导出的 HTML 片单：优先识别 IMDb 标题链接，否则逐行读取表格/列表文本
func ParseWatchlistHTML(r io.Reader) ([]model.ImportEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var entries []model.ImportEntry
	seen := make(map[string]bool)

	doc.Find(`a[href*="/title/tt"]`).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		m := reIMDbTitle.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}
		title := CleanImportTitle(s.Text())
		if utf8.RuneCountInString(title) <= 1 {
			return
		}
		seen[m[1]] = true
		entries = append(entries, model.ImportEntry{
			Title:  title,
			Year:   ExtractYear(s.Parent().Text()),
			IMDbID: m[1],
		})
	})
	if len(entries) > 0 {
		return entries, nil
	}

	var lines []string
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, csvQuote(strings.TrimSpace(cell.Text())))
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, ","))
		}
	})
	if len(lines) == 0 {
		doc.Find("li").Each(func(i int, s *goquery.Selection) {
			lines = append(lines, strings.Join(strings.Fields(s.Text()), " "))
		})
	}
	return ParseWatchlistText(strings.Join(lines, "\n")), nil
}

// OMDbCacheKey 外部评分缓存键：标题折叠大小写后只保留 [a-z0-9]，拼接年份或 unknown
func OMDbCacheKey(title, year string) string {
	normalized := reNonAlnum.ReplaceAllString(titleFolding.String(title), "")
	if year == "" {
		year = "unknown"
	}
	return normalized + "_" + year
}

// SignificantWords 标题中长度大于 2 的词（小写），用于相似标题匹配
func SignificantWords(title string) []string {
	var words []string
	for _, w := range strings.Split(titleFolding.String(title), " ") {
		if utf8.RuneCountInString(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// TitlesSimilar 两个标题是否有互相包含的有效词
func TitlesSimilar(a, b string) bool {
	wordsB := SignificantWords(b)
	for _, wa := range SignificantWords(a) {
		for _, wb := range wordsB {
			if strings.Contains(wb, wa) || strings.Contains(wa, wb) {
				return true
			}
		}
	}
	return false
}

func splitCSVLine(line string) []string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	record, err := reader.Read()
	if err != nil {
		// 格式不规范时退回简单切分
		record = strings.Split(line, ",")
	}
	parts := make([]string, len(record))
	for i, p := range record {
		parts[i] = strings.TrimSpace(strings.ReplaceAll(p, `"`, ""))
	}
	return parts
}

func csvQuote(s string) string {
	if strings.ContainsAny(s, `",`) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
