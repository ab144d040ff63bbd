package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// English strings are the message keys.
var french = []struct{ key, msg string }{
	{"Welcome to %s", "Bienvenue sur %s"},
	{"You are connected to %s.", "Vous êtes connecté à %s."},
	{"Continue", "Continuer"},
	{"You are now online", "Vous êtes maintenant en ligne"},
	{"Your access is valid for %d minutes.", "Votre accès est valable %d minutes."},
	{"Open a browser and visit %s to continue.", "Ouvrez un navigateur et allez sur %s pour continuer."},
	{"Internet is currently unavailable from this hotspot.", "Internet est actuellement indisponible depuis ce point d'accès."},
}

func init() {
	for _, m := range french {
		message.SetString(language.French, m.key, m.msg)
	}
}
