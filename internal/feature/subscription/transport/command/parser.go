// Package command はボット宛てのテキストコマンドを解析し、関心リスト操作に変換するアダプターです。
//
// 対応するコマンド（<@bot> はボットへのメンション、cl は設定可能な接頭辞）:
//
//	<@bot> cl add Pikachu, Bulbasaur
//	<@bot> cl remove Pikachu
//	<@bot> cl list
//	<@bot> cl away on|off
package command

import (
	"strings"
)

// DefaultPrefix はコマンド接頭辞のデフォルト値です。
const DefaultPrefix = "cl"

// Kind はコマンドの種類です。
type Kind int

const (
	KindAdd Kind = iota + 1
	KindRemove
	KindList
	KindAway
)

// Command は解析済みのコマンドです。
type Command struct {
	Kind  Kind
	Names []string // add/removeの対象（未トリム）
	Away  bool     // awayの値
}

// Parser はメンション接頭辞付きのテキストを解析します。
type Parser struct {
	mentions []string
	prefix   string
}

// NewParser はボットIDとコマンド接頭辞からParserを生成します。
// メンションは <@id> と <@!id> の両方の形式を受け付けます。
func NewParser(botID, prefix string) *Parser {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Parser{
		mentions: []string{"<@" + botID + ">", "<@!" + botID + ">"},
		prefix:   prefix,
	}
}

// Parse はcontentがコマンドであれば解析結果とtrueを返します。
func (p *Parser) Parse(content string) (Command, bool) {
	rest, ok := p.stripMention(strings.TrimSpace(content))
	if !ok {
		return Command{}, false
	}
	rest, ok = cutWord(rest, p.prefix)
	if !ok {
		return Command{}, false
	}

	verb, args, _ := strings.Cut(rest, " ")
	args = strings.TrimSpace(args)
	switch strings.ToLower(verb) {
	case "add":
		return Command{Kind: KindAdd, Names: splitNames(args)}, true
	case "remove":
		return Command{Kind: KindRemove, Names: splitNames(args)}, true
	case "list":
		return Command{Kind: KindList}, true
	case "away":
		switch strings.ToLower(args) {
		case "on", "true", "yes":
			return Command{Kind: KindAway, Away: true}, true
		case "off", "false", "no":
			return Command{Kind: KindAway, Away: false}, true
		}
	}
	return Command{}, false
}

func (p *Parser) stripMention(s string) (string, bool) {
	for _, m := range p.mentions {
		if rest, ok := cutWord(s, m); ok {
			return rest, true
		}
	}
	return "", false
}

// cutWord はsがwordで始まり、その直後が空白または終端であれば残りを返します。
func cutWord(s, word string) (string, bool) {
	if !strings.HasPrefix(s, word) {
		return "", false
	}
	rest := s[len(word):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// splitNames はカンマ区切りの名前を分割します。トリムと空要素の除去は呼び出し側で行います。
func splitNames(args string) []string {
	if args == "" {
		return nil
	}
	return strings.Split(args, ",")
}
