package zodiac

// Sign is one of the twelve zodiac entries shown in the Mini App.
type Sign struct {
	Key   string
	Label string
	Emoji string
}

// signs lists all entries in calendar order, starting with Aries.
var signs = []Sign{
	{Key: "aries", Label: "Овен", Emoji: "♈"},
	{Key: "taurus", Label: "Телец", Emoji: "♉"},
	{Key: "gemini", Label: "Близнецы", Emoji: "♊"},
	{Key: "cancer", Label: "Рак", Emoji: "♋"},
	{Key: "leo", Label: "Лев", Emoji: "♌"},
	{Key: "virgo", Label: "Дева", Emoji: "♍"},
	{Key: "libra", Label: "Весы", Emoji: "♎"},
	{Key: "scorpio", Label: "Скорпион", Emoji: "♏"},
	{Key: "sagittarius", Label: "Стрелец", Emoji: "♐"},
	{Key: "capricorn", Label: "Козерог", Emoji: "♑"},
	{Key: "aquarius", Label: "Водолей", Emoji: "♒"},
	{Key: "pisces", Label: "Рыбы", Emoji: "♓"},
}

var byKey = func() map[string]Sign {
	m := make(map[string]Sign, len(signs))
	for _, s := range signs {
		m[s.Key] = s
	}
	return m
}()

// Lookup returns the sign for a stored key. The second return reports whether
// the key is one of the twelve known signs; the fallback for unknown keys is
// the caller's decision.
func Lookup(key string) (Sign, bool) {
	s, ok := byKey[key]
	return s, ok
}

// Signs returns all twelve signs in calendar order.
func Signs() []Sign {
	out := make([]Sign, len(signs))
	copy(out, signs)
	return out
}
