package release

import "regexp"

// Pattern tables are compiled once and never mutated. Within each list the
// order is the priority order: the first pattern that matches wins.

// episodeOnly is the index in seasonEpisodePatterns of the bare E##/EP##
// fallback, which implies season 1.
const episodeOnly = 4

var seasonEpisodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Ss](\d{1,2})[Ee](\d{1,3})(?:[Ee]\d{1,3})*`),
	regexp.MustCompile(`(\d{1,2})[xX](\d{2,3})`),
	regexp.MustCompile(`(?i)[Ss]eason\s*(\d{1,2})\s*[Ee]pisode\s*(\d{1,3})`),
	regexp.MustCompile(`[Cc](\d{1,2})[\s._\-]*[Ee][Pp](\d{1,3})`),
	regexp.MustCompile(`(?:^|[\s._\-])[Ee][Pp]?(\d{1,3})(?:[\s._\-]|$)`),
}

var yearPattern = regexp.MustCompile(`(?:^|[\s._(\-])(\d{4})(?:[\s._)\-]|$)`)

var qualityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(2160p|4[Kk]|UHD)\b`),
	regexp.MustCompile(`\b(1080p|1080i)\b`),
	regexp.MustCompile(`\b(720p)\b`),
	regexp.MustCompile(`\b(480p|576p|SD)\b`),
}

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(Blu-?[Rr]ay|BDRip|BRRip|BDREMUX)\b`),
	regexp.MustCompile(`(?i)\b(WEB-?DL|WEBRip|WEBDL|AMZN|NF|DSNP|HMAX|ATVP|PCOK|PMTP)\b`),
	regexp.MustCompile(`(?i)\b(DVDRip|DVDR|DVD9|DVD5)\b`),
	regexp.MustCompile(`(?i)\b(HDRip|HDTV|PDTV)\b`),
	regexp.MustCompile(`(?i)\b(CAM|TS|TC|HDCAM|SCR|SCREENER)\b`),
	regexp.MustCompile(`(?i)\b(REMUX)\b`),
}

var codecPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([Hh]\.?265|[Xx]\.?265|HEVC)\b`),
	regexp.MustCompile(`\b([Hh]\.?264|[Xx]\.?264|AVC)\b`),
	regexp.MustCompile(`(?i)\b(AV1)\b`),
	regexp.MustCompile(`(?i)\b(XviD|DivX)\b`),
	regexp.MustCompile(`(?i)\b(VP9)\b`),
	regexp.MustCompile(`(?i)\b(MPEG-?[24])\b`),
}

var audioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(DTS-?HD[\s._\-]?MA|DTS-?HD|DTS-?X|DTS)\b`),
	regexp.MustCompile(`(?i)\b(TrueHD[\s._\-]?Atmos|TrueHD|Atmos)\b`),
	regexp.MustCompile(`(?i)\b(DD[P+]?\s*5\.1|DDP?7\.1|Dolby\s*Digital|AC-?3|EAC-?3|E-AC-3)\b`),
	regexp.MustCompile(`(?i)\b(FLAC|LPCM|PCM)\b`),
	regexp.MustCompile(`(?i)\b(AAC[\s._\-]?2\.0|AAC[\s._\-]?5\.1|AAC)\b`),
	regexp.MustCompile(`(?i)\b(MP3|OGG|OPUS)\b`),
}

// miscPatterns are removed everywhere they match, not just once.
var miscPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(PROPER|REPACK|RERIP|REAL|INTERNAL|LIMITED|EXTENDED|UNRATED|DC|DIRECTORS[\s._\-]?CUT)\b`),
	regexp.MustCompile(`(?i)\b(HDR10\+?|HDR|DV|DoVi|Dolby[\s._\-]?Vision|SDR|HLG)\b`),
	regexp.MustCompile(`(?i)\b(10bit|8bit|12bit)\b`),
	regexp.MustCompile(`(?i)\b(MULTI|MULTi|DUAL|DUBBED|SUBBED)\b`),
	regexp.MustCompile(`(?i)\b(COMPLETE|PROPER|REMASTERED)\b`),
}

var (
	releaseGroupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	bracketTagPattern   = regexp.MustCompile(`\[[^\]]*\]`)
	parenTagPattern     = regexp.MustCompile(`\([^)]*\)`)
	parenYearExact      = regexp.MustCompile(`^\(\d{4}\)$`)
	separatorPattern    = regexp.MustCompile(`[._]`)
	dashPattern         = regexp.MustCompile(`[–—\-]`)
	bracketCharsPattern = regexp.MustCompile(`[\[\](){}]`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)

	parenYearPattern    = regexp.MustCompile(`\((\d{4})\)`)
	trailingYearPattern = regexp.MustCompile(`[\s._\-](\d{4})(?:[\s._\-]|$)`)
)
