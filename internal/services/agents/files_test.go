package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(messages ...openai.Message) []ResponseItem {
	out := make([]ResponseItem, 0, len(messages))
	for _, m := range messages {
		out = append(out, ResponseItem{MessageID: m.ID, Role: m.Role, Content: m.Content})
	}
	return out
}

func TestExtractFileIDs(t *testing.T) {
	tests := []struct {
		name  string
		items []ResponseItem
		want  []string
	}{
		{
			name:  "no items",
			items: nil,
			want:  nil,
		},
		{
			name:  "text without annotations",
			items: items(textMessage("m1", "just text")),
			want:  nil,
		},
		{
			name: "image and file path in first-seen order",
			items: items(
				imageMessage("m1", "file_img"),
				textMessage("m2", "see csv", filePathAnnotation("file_csv")),
			),
			want: []string{"file_img", "file_csv"},
		},
		{
			name: "duplicates collapse",
			items: items(
				imageMessage("m1", "file_a"),
				textMessage("m2", "again", filePathAnnotation("file_a"), filePathAnnotation("file_b")),
				imageMessage("m3", "file_b"),
			),
			want: []string{"file_a", "file_b"},
		},
		{
			name: "citations and malformed annotations are skipped",
			items: items(textMessage("m1", "cited",
				map[string]any{"type": "file_citation", "file_citation": map[string]any{"file_id": "file_cited"}},
				map[string]any{"type": "file_path"},
				map[string]any{"type": "file_path", "file_path": "not an object"},
				"not a map",
				filePathAnnotation(""),
			)),
			want: nil,
		},
		{
			name:  "content part with nothing set",
			items: []ResponseItem{{MessageID: "m1", Content: []openai.MessageContent{{Type: "text"}}}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFileIDs(tt.items))
		})
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"/mnt/data/chart.png", "chart.png"},
		{"report.csv", "report.csv"},
		{"../../etc/passwd", "passwd"},
		{`C:\temp\data.csv`, "data.csv"},
		{"", "file_1"},
		{"..", "file_1"},
		{"/", "file_1"},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, localName(tt.remote, "file_1"))
		})
	}
}

func TestDownloadFile(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_1", "/mnt/data/chart.png", "png-bytes", len("png-bytes"))
	svc, _ := newTestService(api)
	dir := filepath.Join(t.TempDir(), "out")

	got, err := svc.DownloadFile(context.Background(), "file_1", dir)
	require.NoError(t, err)
	assert.Equal(t, "chart.png", got.Name)
	assert.Equal(t, int64(len("png-bytes")), got.Bytes)

	data, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDownloadFileNameCollision(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_1", "chart.png", "one", 3)
	api.addFile("file_2", "chart.png", "two", 3)
	svc, _ := newTestService(api)
	dir := t.TempDir()

	first, err := svc.DownloadFile(context.Background(), "file_1", dir)
	require.NoError(t, err)
	second, err := svc.DownloadFile(context.Background(), "file_2", dir)
	require.NoError(t, err)

	assert.Equal(t, "chart.png", first.Name)
	assert.Equal(t, "file_2_chart.png", second.Name)
}

func TestDownloadFileSizeMismatch(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_1", "data.csv", "a,b\n1,2\n", 1024)
	svc, _ := newTestService(api)
	dir := t.TempDir()

	_, err := svc.DownloadFile(context.Background(), "file_1", dir)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, statErr := os.Stat(filepath.Join(dir, "data.csv"))
	assert.True(t, os.IsNotExist(statErr), "partial file is removed")
}

func TestDownloadFileUnreportedSize(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_1", "data.csv", "a,b\n", 0)
	svc, _ := newTestService(api)

	got, err := svc.DownloadFile(context.Background(), "file_1", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Bytes)
}

func TestDownloadFileMissing(t *testing.T) {
	svc, _ := newTestService(newFakeAPI())

	_, err := svc.DownloadFile(context.Background(), "file_nope", t.TempDir())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDownloadAll(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_img", "plot.png", "img", 3)
	api.addFile("file_csv", "table.csv", "csv", 3)
	svc, _ := newTestService(api)

	got, err := svc.DownloadAll(context.Background(), items(
		imageMessage("m1", "file_img"),
		textMessage("m2", "missing", filePathAnnotation("file_missing")),
		textMessage("m3", "table", filePathAnnotation("file_csv")),
	), t.TempDir())

	require.Error(t, err, "first failure is reported")
	require.Len(t, got, 2)
	assert.Equal(t, "file_img", got[0].FileID)
	assert.Equal(t, "file_csv", got[1].FileID)
}

func TestOpenFile(t *testing.T) {
	api := newFakeAPI()
	api.addFile("file_1", "/mnt/data/table.csv", "a,b\n", 4)
	svc, _ := newTestService(api)

	f, err := svc.OpenFile(context.Background(), "file_1")
	require.NoError(t, err)
	defer f.Body.Close()

	assert.Equal(t, "table.csv", f.Name)
	assert.Equal(t, int64(4), f.Bytes)
}
