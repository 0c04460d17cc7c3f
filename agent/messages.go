package agent

import (
	"fmt"
	"strings"

	"github.com/tbxark/formdoc/catalog"
)

const (
	msgAccessDenied      = "❌ Доступ запрещен."
	msgRestarting        = "🔄 Перезапускаю бота..."
	msgCancelled         = "❌ Операция отменена.\nВсе временные данные удалены.\n\nДля начала используй /start"
	msgEmptySelection    = "❌ Нужно выбрать хотя бы один документ!"
	msgNoFields          = "❌ В выбранных шаблонах нет полей для заполнения!\nПроверь что файлы шаблонов существуют.\n\nНажми /start чтобы начать заново."
	msgFirstField        = "❌ Это первое поле, нельзя вернуться назад"
	msgBackToPrevious    = "↩️ Возвращаюсь к предыдущему полю для исправления..."
	msgGenerationFailure = "❌ Не удалось сгенерировать документы.\n\nНажми /start чтобы начать заново."
	msgUnexpected        = "⚠️ Сейчас это действие недоступно."
	msgUnknownCategory   = "❌ Такой категории нет."
	msgUnknownTemplate   = "❌ Такого документа нет в категории."
	msgDone              = "🎉 Все документы готовы!\n\n⚠️ Временные файлы удалены из системы\n\nДля нового документа используй /start"
	msgProcessingError   = "Извините, при обработке ответа произошла ошибка: %s"
)

func categoryMenu(c *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString("🏥 Выбери тип медицинской помощи:\n\n")
	for _, cat := range c.Categories {
		if cat.Description != "" {
			fmt.Fprintf(&sb, "• %s - %s\n", cat.Name, cat.Description)
		} else {
			fmt.Fprintf(&sb, "• %s\n", cat.Name)
		}
	}
	sb.WriteString("\nВыбери категорию:")
	return sb.String()
}

func templateMenu(selected, total int) string {
	return fmt.Sprintf("📋 Выбери нужные документы:\n\n"+
		"• Выбрано: %d/%d\n"+
		"• Нажми на названия которые нужны\n"+
		"• Они выделятся галочкой\n"+
		"• Можно выбрать все сразу или по отдельности\n"+
		"• Когда выбрал нужные - жми '🚀 Продолжить'", selected, total)
}

func allSelected(category string, names []string) string {
	return fmt.Sprintf("✅ Выбраны ВСЕ документы для %s:\n📝 %s\n\nНажми '🚀 Продолжить' для заполнения данных",
		category, strings.Join(names, ", "))
}

func startFilling(names []string) string {
	return fmt.Sprintf("✅ Выбрано документов: %d\n📝 %s\n\n🔄 Переходим к заполнению данных...",
		len(names), strings.Join(names, ", "))
}
