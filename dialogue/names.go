package dialogue

import "github.com/tbxark/formdoc/types"

// DisplayNames maps a field to the question shown to the user.
type DisplayNames map[types.FieldName]string

// Lookup falls back to the raw field name.
func (d DisplayNames) Lookup(field types.FieldName) string {
	if text, ok := d[field]; ok && text != "" {
		return text
	}
	return string(field)
}

func (d DisplayNames) FieldInfo(field types.FieldName) types.FieldInfo {
	return types.FieldInfo{
		Name:        field,
		DisplayName: d.Lookup(field),
		Required:    true,
	}
}

func (d DisplayNames) FieldInfos(fields []types.FieldName) []types.FieldInfo {
	out := make([]types.FieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, d.FieldInfo(f))
	}
	return out
}

// Merge returns a copy of d overridden by other.
func (d DisplayNames) Merge(other DisplayNames) DisplayNames {
	out := make(DisplayNames, len(d)+len(other))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func DefaultDisplayNames() DisplayNames {
	return DisplayNames{
		"name":         "👤 ФИО пациента",
		"birth_date":   "📅 Дата рождения (ДД.ММ.ГГГГ)",
		"address":      "📍 Адрес регистрации по месту жительства",
		"address_fact": "🏠 Адрес фактического проживания",

		"oms":   "📋 Номер полиса ОМС",
		"snils": "📘 СНИЛС",

		"diagnosis":      "🏥 Установлен клинический диагноз",
		"diagnosis_code": "🔢 Код по МКБ-10",

		"medical_history": "📋 Anamnesis morbi",
		"status_localis":  "📊 Status localis",

		"wmp":              "🔬 Наименование вида ВМП",
		"wmp_oms":          "💊 Наименование вида ВМП в ОМС",
		"wmp_group":        "📁 № группы ВМП",
		"wmp_code":         "🔢 Код вида ВМП",
		"wmp_oms_group":    "📂 № группы ВМП в ОМС",
		"wmp_oms_code":     "🔣 Код вида ВМП в ОМС",
		"patient_model":    "👥 Модель пациента",
		"treatment_method": "💉 Метод лечения ВМП",

		"ksg_group":      "📊 Группа КСГ",
		"operation_code": "🔪 Код операции",

		"recommendations": "📝 Рекомендации / Решение комиссии",

		"doctor":     "👨‍⚕️ ФИО врача",
		"fio_lech":   "👩‍⚕️ ФИО лечащего врача (для подписи)",
		"department": "🏢 Отделение",
	}
}
