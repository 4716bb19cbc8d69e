package admin

// Тексты главной страницы админки
const (
	DashboardTitle   = "Guestbookapi"
	WelcomeMessage   = "Bienvenu sur le tableau de bord des conférences"
	DashboardMessage = "Vous allez pouvoir gérer les différents lieux de conférences ainsi que leurs commentaires"
)

// MenuItem - пункт бокового меню админки
type MenuItem struct {
	Label string
	Icon  string
	Link  string
}

// Dashboard описывает главную страницу и меню админки
type Dashboard struct {
	Title       string
	Welcome     string
	Description string
	Menu        []MenuItem
}

// NewDashboard создает панель; prefix - путь, под которым смонтирована админка
func NewDashboard(prefix string) Dashboard {
	return Dashboard{
		Title:       DashboardTitle,
		Welcome:     WelcomeMessage,
		Description: DashboardMessage,
		Menu: []MenuItem{
			{Label: "Dashboard", Icon: "fa fa-home", Link: prefix},
			{Label: "Conférences", Icon: "fas fa-map-marker-alt", Link: prefix + "/conferences"},
			{Label: "Commentaires", Icon: "fas fa-comments", Link: prefix + "/commentaires"},
		},
	}
}
