package telegram

import (
	"fmt"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/usecase"
)

// All user-facing copy lives here so handlers stay readable.

const (
	textMainMenu = "🏠 <b>Дизайн интерьера с ИИ</b>\n\n" +
		"Загрузите фото комнаты и получите новый дизайн в выбранном стиле за минуту."

	textUploadPhoto = "📷 <b>Загрузите фото комнаты</b>\n\n" +
		"Пришлите одну фотографию помещения, для которого хотите получить новый дизайн."

	textChooseRoom = "🚪 <b>Что это за комната?</b>\n\nВыберите тип помещения:"

	textChooseStyle = "🎨 <b>Выберите стиль</b>\n\nВ каком стиле оформить интерьер?"

	textGenerating = "✨ Генерирую дизайн...\n\nОбычно это занимает 30-60 секунд."

	textNoBalance = "😔 <b>Генерации закончились</b>\n\n" +
		"Купите пакет генераций или пригласите друзей и получите бонусы."

	textGenerationFailed = "😞 Не получилось сгенерировать дизайн. Попробуйте другой стиль."

	textGenerationRefunded = "😞 Не получилось сгенерировать дизайн. Генерация возвращена на баланс, попробуйте другой стиль."

	textAlbumNotice = "⚠️ Можно обработать только одно фото. Пришлите, пожалуйста, одно фото без альбома."

	textPhotoBlocked = "⚠️ Сначала нажмите «Создать дизайн», затем пришлите фото."

	textFlowReset = "⚠️ Ожидался выбор комнаты. Начнём заново: пришлите фото."

	textBuyTitle = "💎 <b>Пакеты генераций</b>\n\nВыберите пакет:"

	textPaymentPending = "⏳ Платёж ещё не прошёл. Оплатите по ссылке и нажмите «Проверить оплату»."

	textPaymentNotFound = "🤷 Не нашёл неоплаченных счетов. Создайте новый."

	textPaymentFailed = "❌ Платёж не прошёл. Попробуйте ещё раз."

	textExchangeNothing = "На реферальном балансе недостаточно средств для обмена."
)

func textResult(style model.DesignStyle) string {
	return fmt.Sprintf("✅ <b>Готово!</b>\n\nСтиль: %s\n\nХотите попробовать другой стиль или загрузить новое фото?", styleLabel(style))
}

func textProfile(u *model.User, ref *usecase.ReferralStats) string {
	return fmt.Sprintf(
		"👤 <b>Профиль</b>\n\n"+
			"💰 Генераций на балансе: <b>%d</b>\n\n"+
			"👥 <b>Реферальная программа</b>\n"+
			"Приглашено друзей: %d\n"+
			"Реферальный баланс: %d ₽ (заработано всего: %d ₽)\n\n"+
			"Ваша ссылка:\n%s\n\n"+
			"За каждого друга вы оба получаете бонусные генерации, а с его покупок вам начисляется процент.",
		u.Balance, ref.ReferralsCount, ref.ReferralBalance, ref.TotalEarnedRUB, ref.Link,
	)
}

func textWelcome(u *model.User, created bool) string {
	if created {
		return fmt.Sprintf(
			"👋 Добро пожаловать!\n\nВам начислено <b>%d бесплатных генерации</b>.\n\n%s",
			u.Balance, textMainMenu,
		)
	}
	return textMainMenu
}

func textInvoice(pkg model.CreditPackage) string {
	return fmt.Sprintf(
		"💳 <b>%s</b> — %d ₽\n\nОплатите по ссылке ниже, затем нажмите «Проверить оплату».",
		pkg.Name, pkg.PriceRUB,
	)
}

func textPaymentDone(credits int) string {
	return fmt.Sprintf("✅ Оплата прошла! Начислено генераций: <b>%d</b>.", credits)
}

func textExchanged(credits int) string {
	return fmt.Sprintf("✅ Обмен выполнен: начислено генераций: <b>%d</b>.", credits)
}

var roomLabels = map[model.RoomType]string{
	model.RoomLivingRoom: "🛋 Гостиная",
	model.RoomBedroom:    "🛏 Спальня",
	model.RoomKitchen:    "🍳 Кухня",
	model.RoomBathroom:   "🛁 Ванная",
	model.RoomOffice:     "💻 Кабинет",
	model.RoomDiningRoom: "🍽 Столовая",
}

var styleLabels = map[model.DesignStyle]string{
	model.StyleModern:        "Современный",
	model.StyleMinimalist:    "Минимализм",
	model.StyleScandinavian:  "Скандинавский",
	model.StyleIndustrial:    "Лофт",
	model.StyleRustic:        "Рустик",
	model.StyleJapandi:       "Джапанди",
	model.StyleBoho:          "Бохо",
	model.StyleMediterranean: "Средиземноморский",
	model.StyleMidCentury:    "Мид-сенчури",
	model.StyleArtDeco:       "Ар-деко",
}

func roomLabel(r model.RoomType) string {
	if l, ok := roomLabels[r]; ok {
		return l
	}
	return string(r)
}

func styleLabel(s model.DesignStyle) string {
	if l, ok := styleLabels[s]; ok {
		return l
	}
	return string(s)
}
