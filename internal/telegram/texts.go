package telegram

// UI texts, Romanian like the bot they belong to.
const (
	startText = "Bot activ. Răspund doar la comenzi. Fără improvizații."

	helpText = "/remind grup \"<mesaj>\" <timp>\n" +
		"/remind @utilizator \"<mesaj>\" <timp>\n" +
		"/reminders\n" +
		"/delremind <id>\n" +
		"/weather <oraș>\n" +
		"/summary [ore] sau [nr mesaje]\n" +
		"/mood\n" +
		"/ping"

	pingText = "Sunt online. Din păcate."

	remindUsage = "Folosește: /remind grup \"<mesaj>\" <timp> sau /remind @utilizator \"<mesaj>\" <timp>.\n" +
		"Timp: «în N ore/minute», «la fiecare N ore/minute», «zilnic HH:MM», " +
		"«zilnic HH:MM lun,mie,vin», «lunar ZZ HH:MM», «ZZ-LL-AAAA HH:MM»."

	duplicateText      = "Există deja un memento identic. Nu îl adaug de două ori."
	persistFailedText  = "Nu am putut salva memento-ul. Încearcă din nou."
	noRemindersText    = "Niciun memento programat."
	weatherMissingCity = "Specifică un oraș."
	weatherNotFound    = "Nu găsesc orașul. Nici eu nu le știu pe toate."
	weatherDisabled    = "Serviciul meteo nu este configurat."
	nothingToSummarize = "Nu am ce rezuma."
)

// Joke replies rotated when a trigger word shows up, keyed by detected
// language.
var jokes = map[string][]string{
	"ro": {
		"Am notat. Nu ajută cu nimic.",
		"Informație procesată. Demnitatea nu.",
		"Mesaj recepționat. Inteligența rămâne opțională.",
	},
	"en": {
		"Message received. Wisdom not detected.",
		"Logged. Improvement pending.",
		"Acknowledged. Moving on.",
	},
}
