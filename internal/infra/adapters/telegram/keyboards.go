package telegram

import (
	"fmt"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

// Callback data vocabulary. Prefixed entries carry a suffix parsed by the
// prefix router.
const (
	cbCreateDesign = "create_design"
	cbMainMenu     = "main_menu"
	cbShowProfile  = "show_profile"
	cbBuy          = "buy_generations"
	cbCheckPayment = "check_payment"
	cbExchange     = "exchange_referral"
	cbBackToRoom   = "back_to_room"
	cbChangeStyle  = "change_style"

	cbRoomPrefix  = "room_"
	cbStylePrefix = "style_"
	cbPayPrefix   = "pay_"
)

func mainMenuKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "✨ Создать дизайн", Data: cbCreateDesign}},
		{{Text: "👤 Профиль", Data: cbShowProfile}},
		{{Text: "💎 Купить генерации", Data: cbBuy}},
	}
}

func uploadPhotoKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "◀️ В меню", Data: cbMainMenu}},
	}
}

func roomKeyboard() [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(model.Rooms)+1)
	for _, r := range model.Rooms {
		rows = append(rows, []adapter.InlineButton{
			{Text: roomLabel(r), Data: cbRoomPrefix + string(r)},
		})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ В меню", Data: cbMainMenu}})
	return rows
}

func styleKeyboard() [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(model.Styles)+1)
	for _, s := range model.Styles {
		rows = append(rows, []adapter.InlineButton{
			{Text: styleLabel(s), Data: cbStylePrefix + string(s)},
		})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ Назад", Data: cbBackToRoom}})
	return rows
}

func resultKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "🎨 Другой стиль", Data: cbChangeStyle}},
		{{Text: "📷 Новое фото", Data: cbCreateDesign}},
		{{Text: "◀️ В меню", Data: cbMainMenu}},
	}
}

func retryKeyboard() [][]adapter.InlineButton {
	return styleKeyboard()
}

func noBalanceKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "💎 Купить генерации", Data: cbBuy}},
		{{Text: "👤 Профиль", Data: cbShowProfile}},
		{{Text: "◀️ В меню", Data: cbMainMenu}},
	}
}

func packagesKeyboard(pkgs []model.CreditPackage) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(pkgs)+1)
	for _, p := range pkgs {
		rows = append(rows, []adapter.InlineButton{
			{Text: packageLabel(p), Data: cbPayPrefix + p.Key},
		})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ В меню", Data: cbMainMenu}})
	return rows
}

func invoiceKeyboard(payURL string) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{{Text: "💳 Оплатить", URL: payURL}},
		{{Text: "🔄 Проверить оплату", Data: cbCheckPayment}},
		{{Text: "◀️ В меню", Data: cbMainMenu}},
	}
}

func profileKeyboard(canExchange bool) [][]adapter.InlineButton {
	rows := [][]adapter.InlineButton{
		{{Text: "💎 Купить генерации", Data: cbBuy}},
	}
	if canExchange {
		rows = append(rows, []adapter.InlineButton{
			{Text: "🔁 Обменять реферальный баланс", Data: cbExchange},
		})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ В меню", Data: cbMainMenu}})
	return rows
}

func packageLabel(p model.CreditPackage) string {
	return fmt.Sprintf("%s — %d ₽", p.Name, p.PriceRUB)
}
