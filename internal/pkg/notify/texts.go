package notify

import (
	"fmt"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
)

func suitableJobText(b *persistence.Booking, lang, due string) string {
	if !b.Immediate {
		return fmt.Sprintf("Ny bokning för %stolk %dmin %s", lang, b.Duration, due)
	}
	return fmt.Sprintf("Ny akutbokning för %stolk %dmin", lang, b.Duration)
}

func expiredText(b *persistence.Booking, lang, due string) string {
	return fmt.Sprintf("Tyvärr har ingen tolk accepterat er bokning: (%s, %dmin, %s). Vänligen pröva boka om tiden.",
		lang, b.Duration, due)
}

func acceptedText(b *persistence.Booking, lang, due string) string {
	return fmt.Sprintf("Din bokning för %s translators, %dmin, %s har accepterats av en tolk. "+
		"Vänligen öppna appen för att se detaljer om tolken.", lang, b.Duration, due)
}

func customerCancelledText(b *persistence.Booking, lang, due string) string {
	return fmt.Sprintf("Kunden har avbokat bokningen för %stolk, %dmin, %s. Var god och kolla dina tidigare bokningar för detaljer.",
		lang, b.Duration, due)
}

func translatorCancelledText(b *persistence.Booking, lang, due string) string {
	return fmt.Sprintf("Er %stolk, %dmin %s, har avbokat tolkningen. Vi letar nu efter en ny tolk som kan ersätta denne. Tack.",
		lang, b.Duration, due)
}

func reminderText(b *persistence.Booking, lang string, town string) string {
	date, tm := b.Due.Format("2006-01-02"), b.Due.Format("15:04")
	if b.CustomerPhysicalType {
		return fmt.Sprintf("Detta är en påminnelse om att du har en %s tolkning (på plats i %s) kl %s på %s som varar i %d min. "+
			"Lycka till och kom ihåg att ge feedback efter utförd tolkning!", lang, town, tm, date, b.Duration)
	}
	return fmt.Sprintf("Detta är en påminnelse om att du har en %s tolkning (telefon) kl %s på %s som varar i %d min. "+
		"Lycka till och kom ihåg att ge feedback efter utförd tolkning!", lang, tm, date, b.Duration)
}

func smsText(b *persistence.Booking, town, duration string) string {
	date, tm := b.Due.Format("02.01.2006"), b.Due.Format("15:04")
	if b.CustomerPhysicalType && !b.CustomerPhoneType {
		return fmt.Sprintf("Ny platstolkning i %s den %s kl %s, %s. Bokning #%d. Öppna appen för att acceptera.",
			town, date, tm, duration, b.ID)
	}
	return fmt.Sprintf("Ny telefontolkning den %s kl %s, %s. Bokning #%d. Öppna appen för att acceptera.",
		date, tm, duration, b.ID)
}

func subjectCreated(id int64) string {
	return fmt.Sprintf("Vi har mottagit er tolkbokning. Bokningsnr: #%d", id)
}

func subjectAccepted(id int64) string {
	return fmt.Sprintf("Bekräftelse - tolk har accepterat er bokning (bokning # %d)", id)
}

func subjectReopened(lang string, id int64) string {
	return fmt.Sprintf("Vi har nu återöppnat er bokning av %stolk för bokning #%d", lang, id)
}

func subjectCancelled(id int64) string {
	return fmt.Sprintf("Avbokning av bokningsnr: #%d", id)
}

func subjectEnded(id int64) string {
	return fmt.Sprintf("Information om avslutad tolkning för bokningsnummer #%d", id)
}

func subjectChanged(id int64) string {
	return fmt.Sprintf("Meddelande om ändring av tolkbokning för uppdrag #%d", id)
}

func subjectTranslatorChanged(id int64) string {
	return fmt.Sprintf("Meddelande om tilldelning av tolkuppdrag för uppdrag #%d", id)
}
