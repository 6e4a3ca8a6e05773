package normalizer

// attributeFormats maps upstream attribute ids to German display formats.
// Verbs: %d integer, %0.1f one-decimal float, %% literal percent.
var attributeFormats = map[int]string{
	1:   "Max. TP +%d",
	2:   "Max. MP +%d",
	3:   "Vitalität +%d",
	4:   "Intelligenz +%d",
	5:   "Stärke +%d",
	6:   "Beweglichkeit +%d",
	7:   "Angriffsgeschwindigkeit +%d%%",
	8:   "Bewegungsgeschw. %d%%",
	9:   "Zaubergeschwindigkeit +%d%%",
	10:  "TP-Regeneration +%d%%",
	11:  "MP-Regeneration +%d%%",
	12:  "Vergiftungschance %d%%",
	13:  "Ohnmachtschance %d%%",
	14:  "Verlangsamungschance %d%%",
	15:  "Chance auf krit. Treffer +%d%%",
	16:  "%d%% Chance auf durchbohrenden Treffer",
	17:  "Stark gegen Halbmenschen +%d%%",
	18:  "Stark gegen Tiere +%d%%",
	19:  "Stark gegen Orks +%d%%",
	20:  "Stark gegen Esoterische +%d%%",
	21:  "Stark gegen Untote +%d%%",
	22:  "Stark gegen Teufel +%d%%",
	23:  "%d%% Schaden wird von TP absorbiert",
	24:  "%d%% Schaden wird von MP absorbiert",
	25:  "%d%% Chance auf Manaraub",
	26:  "%d%% Chance, MP bei Treffer zurückzuerhalten",
	27:  "Chance, Nahkampfangriff abzublocken %d%%",
	28:  "%d%% Chance, Pfeilangriff auszuweichen",
	29:  "Schwertverteidigung %d%%",
	30:  "Zweihänderverteidigung %d%%",
	31:  "Dolchverteidigung %d%%",
	32:  "Glockenverteidigung %d%%",
	33:  "Fächerverteidigung %d%%",
	34:  "Pfeilverteidigung %d%%",
	35:  "Feuerwiderstand %d%%",
	36:  "Blitzwiderstand %d%%",
	37:  "Magiewiderstand %d%%",
	38:  "Windwiderstand %d%%",
	39:  "%d%% Chance, Nahkampftreffer zu reflektieren",
	40:  "%d%% Chance, Fluch zu reflektieren",
	41:  "Giftwiderstand %d%%",
	42:  "%d%% Chance, MP wiederherzustellen",
	43:  "%d%% Chance auf EXP-Bonus",
	44:  "%d%% Chance, eine doppelte Menge Yang fallen zu lassen.",
	45:  "%d%% Chance, eine doppelte Menge von Gegenständen fallen zu lassen.",
	46:  "Trank %d%% Effektzuwachs",
	47:  "%d%% Chance, TP wiederherzustellen",
	48:  "Abwehr gegen Ohnmacht",
	49:  "Abwehr gegen Verlangsamen",
	50:  "Immun gegen Stürzen",
	51:  "Fertigkeit",
	52:  "Reichweite +%d m",
	53:  "Angriffswert +%d",
	54:  "Verteidigung +%d",
	55:  "Magischer Angriffswert +%d",
	56:  "Magische Verteidigung +%d",
	58:  "Max. Ausdauer +%d",
	59:  "Stark gegen Krieger +%d%%",
	60:  "Stark gegen Ninja +%d%%",
	61:  "Stark gegen Sura +%d%%",
	62:  "Stark gegen Schamanen +%d%%",
	63:  "Stark gegen Monster +%d%%",
	64:  "Angriffswert +%d%%",
	65:  "Verteidigung +%d%%",
	66:  "EXP +%d%%",
	67:  "Dropchance von Gegenständen um %d%% erhöht",
	68:  "Dropchance Yang um %d%% erhöht",
	69:  "Max. TP +%d%%",
	70:  "Max. MP +%d%%",
	71:  "Fertigkeitsschaden %d%%",
	72:  "Durchschn. Schaden %d%%",
	73:  "Widerstand gegen Fertigkeitsschaden %d%%",
	74:  "Durchschn. Schadenswiderstand %d%%",
	78:  "Abwehrchance gegen Kriegerangriffe %d%%",
	79:  "Abwehrchance gegen Ninjaangriffe %d%%",
	80:  "Abwehrchance gegen Suraangriffe %d%%",
	81:  "Abwehrchance gegen Schamanenangriffe %d%%",
	82:  "Energie %d",
	83:  "Verteidigung +%d",
	84:  "Kostümbonus %d%%",
	85:  "Magischer Angriff +%d%%",
	86:  "Magie-/Nahkampfangriff +%d%%",
	87:  "Eiswiderstand +%d%%",
	88:  "Erdwiderstand +%d%%",
	89:  "Widerstand gegen Dunkelheit %d%%",
	90:  "Widerstand gegen kritischen Treffer +%d%%",
	91:  "Widerstand gegen durchbohrenden Treffer +%d%%",
	92:  "Widerstand gegen Blutungsangriff + %d%%",
	93:  "Blutungsangriff + %d%%",
	94:  "Stark gegen Lykaner + %d%%",
	95:  "Abwehrchance gegen Lykaner %d%%",
	96:  "Krallenverteidigung + %d%%",
	97:  "Aufnahmerate: %d%%",
	98:  "Magiebruch um %d%%",
	99:  "Kraft der Blitze +%d%%",
	100: "Kraft des Feuers +%d%%",
	101: "Kraft des Eises +%d%%",
	102: "Kraft des Windes +%d%%",
	103: "Kraft der Erde +%d%%",
	104: "Kraft der Dunkelheit +%d%%",
	105: "Stark gegen Zodiakmonster +%d%%",
	106: "Stark gegen Insekten +%d%%",
	107: "Stark gegen Wüstenmonster +%d%%",
	108: "Bruch von Schwertverteidigung +%d%%",
	109: "Bruch von Zweihandverteidigung +%d%%",
	110: "Bruch von Dolchverteidigung +%d%%",
	111: "Bruch von Glockenverteidigung +%d%%",
	112: "Bruch von Fächerverteidigung +%d%%",
	113: "Bruch von Pfeilverteidigung +%d%%",
	114: "Bruch von Krallenverteidigung +%d%%",
	115: "Widerstand gegen Halbmenschen %d%%",
	116: "Widerstand gegen Sturz +%d%%",
	119: "Dreiwege-Schnitt-Schaden +%d%%",
	120: "Schaden von Sausen +%d%%",
	121: "Schaden von Schwertwirbel +%d%%",
	122: "Durchschlagsschaden +%d%%",
	123: "Schaden von Heftiges Schlagen +%d%%",
	124: "Schwertschlagschaden +%d%%",
	125: "Schaden von Hinterhalt +%d%%",
	126: "Schaden von Blitzangriff +%d%%",
	127: "Schaden von Degenwirbel +%d%%",
	128: "Schaden von Giftwolke +%d%%",
	129: "Schaden von Wiederholter Schuss +%d%%",
	130: "Pfeilregenschaden +%d%%",
	131: "Giftpfeilschaden +%d%%",
	132: "Feuerpfeilschaden +%d%%",
	133: "Fingerschlagschaden +%d%%",
	134: "Schaden von Drachenwirbel +%d%%",
	135: "Schaden von Zauber aufheben +%d%%",
	136: "Schaden von Dunkler Schlag +%d%%",
	137: "Schaden von Flammenschlag +%d%%",
	138: "Schaden von Dunkler Stein +%d%%",
	139: "Schaden von Fliegender Talisman +%d%%",
	140: "Schaden von Drachenschießen +%d%%",
	141: "Schaden von Drachengebrüll +%d%%",
	142: "Blitzwurfschaden +%d%%",
	143: "Schaden von Blitz heraufbeschwören +%d%%",
	144: "Blitzkrallenschaden +%d%%",
	145: "Schaden von Zerreißen +%d%%",
	146: "Schaden von Atem des Wolfes +%d%%",
	147: "Schaden von Wolfssprung +%d%%",
	148: "Wolfskrallenschaden +%d%%",
	149: "Angriffsschaden von Bossen -%d%%",
	150: "Fertigkeitsschaden von Bossen -%d%%",
	151: "Angriffsschaden gegen Bosse +%d%%",
	152: "Fertigkeitsschaden gegen Bosse +%d%%",
	153: "Erhalte Kraft d. Feuers für %d Sek. im Kampf",
	154: "Erhalte Kraft d. Eises für %d Sek. im Kampf",
	155: "Erhalte Kraft d. Blitze für %d Sek. im Kampf",
	156: "Erhalte Kraft d. Windes für %d Sek. im Kampf",
	157: "Erhalte Kraft d. Dunkelheit für %d Sek. im Kampf",
	158: "Erhalte Kraft d. Erde für %d Sek. im Kampf",
	159: "Erhalte Feuerwiderstand für %d Sek. im Kampf",
	160: "Erhalte Eiswiderstand für %d Sek. im Kampf",
	161: "Erhalte Blitzwiderstand für %d Sek. im Kampf",
	162: "Erhalte Windwiderstand für %d Sek. im Kampf",
	163: "Erhalte Widerstand vs Dunkelheit für %d Sek. im Kampf",
	164: "Erhalte Erdwiderstand für %d Sek. im Kampf",
	214: "+%d%% Stark gegen Metinsteine",
	215: "Absorbiert Schaden zu %d%% als TP",
	216: "Absorbiert Schaden zu %d%% als MP",
	312: "Stark gegen Mysterien +%d%%",
	313: "Stark gegen Drachen +%d%%",
	322: "Stark gegen Mondschatten-Monster +%d%%",
}
