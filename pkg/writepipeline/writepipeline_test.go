package writepipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/propstream/pkg/fileregistry"
	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/itemstore"
)

func newTestPipeline(t *testing.T) (*Pipeline, string, *itemstore.Store, *fileregistry.Registry) {
	t.Helper()
	dir := t.TempDir()
	store, err := itemstore.New(dir)
	if err != nil {
		t.Fatalf("itemstore.New: %v", err)
	}
	registry := fileregistry.New()
	return New(store, registry, 0), dir, store, registry
}

func TestRunAppendsRecognisedProperties(t *testing.T) {
	p, dir, _, _ := newTestPipeline(t)
	key, _ := itemkey.Validate("widget", 1)

	body := strings.NewReader(`<property for="color"><string>red</string></property>` +
		`<property for="weight"><number>3.5</number></property>`)

	result, err := p.Run(key, body)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PropertiesWritten != 2 {
		t.Fatalf("PropertiesWritten = %d, want 2", result.PropertiesWritten)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	data, err := os.ReadFile(filepath.Join(dir, "widget_1.xml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `<string>red</string>`) {
		t.Errorf("data file missing written property: %s", data)
	}
}

func TestRunAccumulatesParserErrorsWithoutFailing(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	key, _ := itemkey.Validate("widget", 1)

	body := strings.NewReader(`<property for="bad"><unknown>x</unknown></property>` +
		`<property for="ok"><string>v</string></property>`)

	result, err := p.Run(key, body)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PropertiesWritten != 1 {
		t.Fatalf("PropertiesWritten = %d, want 1", result.PropertiesWritten)
	}
	if len(result.Errors) == 0 {
		t.Error("expected a parser error for the unknown type")
	}
}

func TestRunFailsWhenNoPropertiesSurvive(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	key, _ := itemkey.Validate("widget", 1)

	body := strings.NewReader(`<property for="bad"><unknown>x</unknown></property>`)

	_, err := p.Run(key, body)
	if err == nil {
		t.Fatal("expected an error when every property is rejected")
	}
}

func TestRunFailsOnEmptyBody(t *testing.T) {
	p, _, _, _ := newTestPipeline(t)
	key, _ := itemkey.Validate("widget", 1)

	_, err := p.Run(key, strings.NewReader(""))
	if err == nil {
		t.Fatal("expected an error for an empty request body")
	}
}

func TestRunFailsBusyWhenWriterAlreadyHeld(t *testing.T) {
	p, _, store, registry := newTestPipeline(t)
	key, _ := itemkey.Validate("widget", 1)

	path, err := store.PrepareWrite(key)
	if err != nil {
		t.Fatalf("PrepareWrite: %v", err)
	}
	h, err := registry.AcquireWriter(key, path)
	if err != nil {
		t.Fatalf("AcquireWriter: %v", err)
	}
	defer h.Release()

	_, err = p.Run(key, strings.NewReader(`<property for="x"><string>v</string></property>`))
	if err == nil {
		t.Fatal("expected Busy error while another writer holds the key")
	}
}
