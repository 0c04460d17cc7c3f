package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/tbxark/formdoc/catalog"
	"github.com/tbxark/formdoc/document"
	"github.com/tbxark/formdoc/template"
)

type templateStatus struct {
	Category string
	Template string
	File     string
	Exists   bool
	Fields   int
}

func inspectTemplates(ctx context.Context, c *catalog.Catalog, source *template.DirSource, extractor *template.Extractor) []templateStatus {
	var out []templateStatus
	for _, cat := range c.Categories {
		for _, tpl := range cat.Templates {
			st := templateStatus{Category: cat.Name, Template: tpl.Name, File: tpl.File, Exists: source.Exists(tpl.File)}
			if st.Exists {
				st.Fields = len(extractor.Extract(ctx, tpl.File))
			}
			out = append(out, st)
		}
	}
	return out
}

// logTemplates reports every template at startup; missing ones still work through the fallback document.
func logTemplates(statuses []templateStatus) {
	for _, st := range statuses {
		if st.Exists {
			slog.Info("Template ready", "category", st.Category, "template", st.Template, "fields", st.Fields)
		} else {
			slog.Warn("Template file not found", "category", st.Category, "template", st.Template, "file", st.File)
		}
	}
}

func printTemplates(w io.Writer, statuses []templateStatus) (missing int, err error) {
	table := tablewriter.NewWriter(w)
	table.Header("Category", "Template", "File", "Status", "Fields")
	for _, st := range statuses {
		status, fields := "✅", strconv.Itoa(st.Fields)
		if !st.Exists {
			status, fields = "❌ not found", "-"
			missing++
		}
		if err := table.Append(st.Category, st.Template, st.File, status, fields); err != nil {
			return missing, err
		}
	}
	return missing, table.Render()
}

func checkTemplates(ctx context.Context, config *Config, w io.Writer) error {
	c, err := loadCatalog(config)
	if err != nil {
		return err
	}
	source := template.NewDirSource(config.TemplatesDir)
	extractor := template.NewExtractor(source, c.FieldRules())
	missing, err := printTemplates(w, inspectTemplates(ctx, c, source, extractor))
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if missing > 0 {
		return fmt.Errorf("%d template(s) missing in %s", missing, config.TemplatesDir)
	}
	return nil
}

var sampleLines = []string{
	"№ истории болезни: {hist_number}",
	"Дата: {current_date}",
	"",
	"ФИО пациента: {name}",
	"Дата рождения: {birth_date}",
	"Адрес регистрации: {address}",
	"Адрес фактического проживания: {address_fact}",
	"Полис ОМС: {oms}",
	"СНИЛС: {snils}",
	"",
	"Клинический диагноз: {diagnosis}",
	"Код по МКБ-10: {diagnosis_code}",
	"Основной диагноз: {main_diagnosis}",
	"Сопутствующий диагноз: {sop_diagnosis}",
}

var sampleVMPLines = []string{
	"Вид ВМП: {wmp}",
	"Группа ВМП: {wmp_group}",
	"Код вида ВМП: {wmp_code}",
	"Модель пациента: {patient_model}",
	"Метод лечения: {treatment_method}",
}

var sampleFooter = []string{
	"",
	"Рекомендации: {recommendations}",
	"Лечащий врач: {fio_lech}",
	"Отделение: {department}",
}

// sampleTemplate builds a starter document with the placeholders the bot knows prompts for.
func sampleTemplate(title string, vmp bool) *document.Document {
	doc := document.New()
	doc.AddHeading(strings.ToUpper(title))
	lines := append([]string(nil), sampleLines...)
	if vmp {
		lines = append(lines, sampleVMPLines...)
	}
	for _, line := range append(lines, sampleFooter...) {
		doc.AddParagraph(line, "")
	}
	return doc
}

// initTemplates writes a sample for every catalog template that has no file yet.
func initTemplates(config *Config, w io.Writer) error {
	c, err := loadCatalog(config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(config.TemplatesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create templates dir: %w", err)
	}
	source := template.NewDirSource(config.TemplatesDir)
	for _, cat := range c.Categories {
		for _, tpl := range cat.Templates {
			if source.Exists(tpl.File) {
				fmt.Fprintf(w, "• %s: %s already exists\n", tpl.Name, tpl.File)
				continue
			}
			path := source.Path(tpl.File)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			doc := sampleTemplate(tpl.Name, strings.Contains(cat.Name, "ВМП"))
			if err := doc.SaveFile(path); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(w, "✅ %s: %s created\n", tpl.Name, tpl.File)
		}
	}
	return nil
}

func loadCatalog(config *Config) (*catalog.Catalog, error) {
	if config.CatalogPath == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(config.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c, nil
}
