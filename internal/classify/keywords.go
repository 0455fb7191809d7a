// Copyright (c) 2026 Avodesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package classify

// Keyword sets are matched against lowercased text, so every entry here must
// be lowercase. The practice handles French immigration and family-law
// matters; the vocabulary reflects the mail it actually receives.

// legalCriticalKeywords cover removal orders, residency and asylum matters
// where statutory appeal windows run from notification.
var legalCriticalKeywords = []string{
	"oqtf",
	"obligation de quitter le territoire",
	"titre de séjour",
	"carte de séjour",
	"refus de séjour",
	"asile",
	"ofpra",
	"cnda",
	"expulsion",
	"éloignement",
	"rétention administrative",
	"centre de rétention",
	"ceseda",
	"tribunal administratif",
	"recours contentieux",
	"régularisation",
	"naturalisation",
}

// newClientKeywords signal first-contact consultation requests.
var newClientKeywords = []string{
	"premier contact",
	"première consultation",
	"demande de consultation",
	"prendre rendez-vous",
	"besoin d'un avocat",
	"cherche un avocat",
	"demande d'information",
	"vos honoraires",
	"pouvez-vous m'aider",
	"je souhaite vous consulter",
}

// Compound new-client condition: a request term in the subject combined with
// a legal-assistance mention in the body.
var requestTerms = []string{"demande", "consultation", "rendez-vous", "rdv"}

var legalAssistanceTerms = []string{"avocat", "juridique", "conseil", "assistance"}

// clientReplyKeywords mark continuations of an existing exchange. The
// conventional "Re:" prefix is matched separately, anchored to the subject:
// as a substring it would hit any body word ending in "re:" ("heure:",
// "lettre:").
var clientReplyKeywords = []string{
	"comme convenu",
	"suite à notre",
	"en réponse à",
	"ci-joint",
	"pièce jointe",
	"pièces jointes",
	"vous trouverez ci-joint",
	"comme demandé",
}

var noReplyMarkers = []string{
	"noreply",
	"no-reply",
	"donotreply",
	"ne-pas-repondre",
	"nepasrepondre",
}

// carrierDomains: a sender from one of these is a postal notification
// regardless of content.
var carrierDomains = []string{
	"laposte.fr",
	"laposte.net",
	"colissimo.fr",
	"chronopost.fr",
	"mondialrelay.fr",
	"dhl.com",
	"ups.com",
	"fedex.com",
}

var postalTerms = []string{
	"numéro de suivi",
	"suivi de colis",
	"suivi de votre courrier",
	"lettre recommandée",
	"recommandé avec accusé de réception",
	"avis de passage",
	"votre colis",
	"tracking number",
}

var urgentKeywords = []string{
	"urgent",
	"très urgent",
	"urgence",
	"dernier délai",
	"délai expire",
	"avant demain",
	"sous 48h",
	"sous 24h",
	"dès que possible",
	"!!!",
}

var spamKeywords = []string{
	"se désinscrire",
	"désinscription",
	"unsubscribe",
	"promotion",
	"offre spéciale",
	"offre exclusive",
	"gratuit",
	"félicitations",
	"vous avez gagné",
	"loterie",
	"cliquez ici",
	"réduction",
}

var bulkSenderPatterns = []string{
	"newsletter",
	"marketing@",
	"promo@",
	"promotions@",
	"mailing@",
	"bounce@",
	"offers@",
}
