package dna

// Alphabet lists the nucleotide symbols the strand model translates,
// including IUPAC ambiguity codes.
const Alphabet = "ACGTRYKMSWBDHVN"

var (
	complement [256]byte
	known      [256]bool
)

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	for i := 0; i < len(Alphabet); i++ {
		known[Alphabet[i]] = true
		known[Alphabet[i]+'a'-'A'] = true
	}
	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH"}
	for _, p := range pairs {
		addPair(p[0], p[1])
		addPair(p[0]+'a'-'A', p[1]+'a'-'A')
	}
	// S, W and N are their own complements and keep the identity mapping.
}

func addPair(a, b byte) {
	complement[a] = b
	complement[b] = a
}

// Complement returns the complementary base. Characters outside the
// alphabet are returned unchanged.
func Complement(ch byte) byte {
	return complement[ch]
}

// ReverseComplement returns the reverse complement of s.
func ReverseComplement(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = complement[s[i]]
	}
	return string(out)
}

// InvalidSymbol returns the offset of the first character of s that is not
// in Alphabet (in either case), or -1.
func InvalidSymbol(s string) int {
	for i := 0; i < len(s); i++ {
		if !known[s[i]] {
			return i
		}
	}
	return -1
}
