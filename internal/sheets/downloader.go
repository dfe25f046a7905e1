package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidSheetURL = errors.New("não foi possível extrair o doc_id da URL")
	ErrNoSheets        = errors.New("nenhuma aba encontrada na planilha")
)

const DefaultBaseURL = "https://docs.google.com"

var (
	docIDPattern = regexp.MustCompile(`/d/e/([\w-]+)/pubhtml`)
	sheetPattern = regexp.MustCompile(`items\.push\(\{name: "([^"]+)", pageUrl: ".*?gid=(\d+)", gid: "(\d+)"`)
)

type Sheet struct {
	Name string
	GID  string
}

// Downloader 下载发布到网页上的 Google 表格的所有标签页并合并
type Downloader struct {
	url     string
	docID   string
	baseURL string
	client  *http.Client
}

func NewDownloader(url string, client *http.Client) (*Downloader, error) {
	m := docIDPattern.FindStringSubmatch(url)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSheetURL, url)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Downloader{
		url:     url,
		docID:   m[1],
		baseURL: DefaultBaseURL,
		client:  client,
	}, nil
}

// WithBaseURL 替换下载 CSV 使用的主机地址，测试时指向本地服务器
func (d *Downloader) WithBaseURL(baseURL string) *Downloader {
	d.baseURL = strings.TrimRight(baseURL, "/")
	return d
}

func (d *Downloader) DocID() string {
	return d.docID
}

func (d *Downloader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// ParseSheets 从发布页面的 HTML 中解析出 (名称, gid)
func ParseSheets(html string) []Sheet {
	var sheets []Sheet
	for _, m := range sheetPattern.FindAllStringSubmatch(html, -1) {
		// 使用 gid 字段而不是 pageUrl 中的 gid，两者应该一致
		sheets = append(sheets, Sheet{Name: m[1], GID: m[3]})
	}
	return sheets
}

func (d *Downloader) Sheets(ctx context.Context) ([]Sheet, error) {
	body, err := d.get(ctx, d.url)
	if err != nil {
		return nil, err
	}
	return ParseSheets(string(body)), nil
}

func (d *Downloader) DownloadCSV(ctx context.Context, gid string) (string, error) {
	url := fmt.Sprintf("%s/spreadsheets/d/e/%s/pub?gid=%s&single=true&output=csv", d.baseURL, d.docID, gid)
	body, err := d.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Merge 合并多个 CSV，只保留第一个的表头
func Merge(texts []string) ([][]string, error) {
	var merged [][]string
	var header []string

	for i, text := range texts {
		reader := csv.NewReader(bytes.NewBufferString(text))
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("aba %d: %w", i+1, err)
		}
		if len(rows) == 0 {
			continue
		}
		if header == nil {
			header = rows[0]
			merged = append(merged, header)
		}
		merged = append(merged, rows[1:]...)
	}

	return merged, nil
}

func (d *Downloader) DownloadAndMerge(ctx context.Context) ([][]string, error) {
	sheets, err := d.Sheets(ctx)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	names := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		names = append(names, sheet.Name)
	}
	slog.Info("找到标签页", "sheets", names)

	texts := make([]string, 0, len(sheets))
	for _, sheet := range sheets {
		slog.Info("正在下载标签页", "name", sheet.Name, "gid", sheet.GID)
		text, err := d.DownloadCSV(ctx, sheet.GID)
		if err != nil {
			return nil, fmt.Errorf("aba %s: %w", sheet.Name, err)
		}
		texts = append(texts, text)
	}

	return Merge(texts)
}
