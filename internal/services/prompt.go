package services

import (
  "bytes"
  "encoding/json"
  "fmt"
  "strings"
)

// Report topics. Intro is the guest-only teaser; everything else is a paid
// angle on the same reading.
const (
  TopicIntro   = "intro"
  TopicGeneral = "general"
  TopicLove    = "love"
  TopicWealth  = "wealth"
  TopicEnergy  = "energy"
)

var allowedTopics = []string{TopicGeneral, TopicLove, TopicWealth, TopicEnergy, TopicIntro}

// NormalizeTopic restricts a client-supplied topic to the known set,
// defaulting to general.
func NormalizeTopic(requested string) string {
  for _, t := range allowedTopics {
    if requested == t {
      return t
    }
  }
  return TopicGeneral
}

// NormalizePaidTopic additionally maps intro to general: logged-in runs
// never produce the teaser variant.
func NormalizePaidTopic(requested string) string {
  topic := NormalizeTopic(requested)
  if topic == TopicIntro {
    return TopicGeneral
  }
  return topic
}

// Answer is one question/answer pair. Answers keep their client insertion
// order, which encoding/json maps would destroy, so AnswerList decodes the
// object by walking its tokens.
type Answer struct {
  Key   string
  Value json.RawMessage
}

type AnswerList []Answer

func (a *AnswerList) UnmarshalJSON(data []byte) error {
  dec := json.NewDecoder(bytes.NewReader(data))
  dec.UseNumber()

  tok, err := dec.Token()
  if err != nil {
    return err
  }
  if delim, ok := tok.(json.Delim); !ok || delim != '{' {
    return fmt.Errorf("answers must be a JSON object")
  }

  out := AnswerList{}
  for dec.More() {
    keyTok, err := dec.Token()
    if err != nil {
      return err
    }
    key, ok := keyTok.(string)
    if !ok {
      return fmt.Errorf("unexpected answers key token %v", keyTok)
    }
    var value json.RawMessage
    if err := dec.Decode(&value); err != nil {
      return err
    }
    out = append(out, Answer{Key: key, Value: value})
  }
  if _, err := dec.Token(); err != nil {
    return err
  }

  *a = out
  return nil
}

func (a AnswerList) MarshalJSON() ([]byte, error) {
  var buf bytes.Buffer
  buf.WriteByte('{')
  for i, ans := range a {
    if i > 0 {
      buf.WriteByte(',')
    }
    key, err := json.Marshal(ans.Key)
    if err != nil {
      return nil, err
    }
    buf.Write(key)
    buf.WriteByte(':')
    if len(ans.Value) == 0 {
      buf.WriteString("null")
    } else {
      buf.Write(ans.Value)
    }
  }
  buf.WriteByte('}')
  return buf.Bytes(), nil
}

// text renders the answer value the way it should read inside a prompt:
// strings lose their quotes, everything else stays compact JSON.
func (ans Answer) text() string {
  var s string
  if err := json.Unmarshal(ans.Value, &s); err == nil {
    return s
  }
  return strings.TrimSpace(string(ans.Value))
}

// RenderInsights builds the bullet list handed to the model, one line per
// answer in insertion order, with snake_case keys promoted to Title Case
// labels.
func RenderInsights(answers AnswerList) string {
  var sb strings.Builder
  for _, ans := range answers {
    sb.WriteString(fmt.Sprintf("- %s: %q\n", titleLabel(ans.Key), ans.text()))
  }
  return sb.String()
}

func titleLabel(key string) string {
  words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
  for i, w := range words {
    if w == "" {
      continue
    }
    words[i] = strings.ToUpper(w[:1]) + w[1:]
  }
  return strings.Join(words, " ")
}

// PromptText interpolates the topic template. Unknown topics fall back to
// the general reading.
func PromptText(topic, name, gender, insights string) string {
  body, ok := promptTemplates[topic]
  if !ok {
    body = promptTemplates[TopicGeneral]
  }
  return strings.NewReplacer(
    "{name}", name,
    "{gender}", gender,
    "{insights}", insights,
  ).Replace(body)
}

var promptTemplates = map[string]string{
  TopicIntro: `You are a mystical palm reader. Using only <h4>, <p>, <ul>, and <li> tags, craft a concise, intriguing report for {name} ({gender}) based on:

{insights}

<h4>Overview</h4>
<p>In 2–3 brief sentences, offer a poetic welcome that sets a calming, mystical tone.</p>

<h4>Insights</h4>
<ul>
<li><strong>Hand Shape</strong>: 2–3 sentences on energy and emotion.</li>
<li><strong>Fingers</strong>: 2–3 sentences on creativity and balance.</li>
<li><strong>Main Lines</strong>: 4–5 sentences providing a deeper dive into the heart line’s emotional rhythm, the head line’s clarity and focus, and the life line’s vitality—exploring how their intersections reveal pivotal life themes.</li>
<li><strong>Mounts & Markings</strong>: 2–3 sentences on unique signs and hidden messages.</li>
<li><strong>Hidden Channels</strong>: 2–3 sentences teasing a subtle minor line or symbol that hints at untapped potential, igniting your curiosity to learn more.</li>
</ul>

<h4>Energy Path</h4>
<p>In 2–3 sentences, close with an uplifting message about growth and healing.</p>

add this paragraph at the end always please:

<p class="intro-message">✨ Want to know more? Unveil hidden fortunes & aura secrets—unlock 5 insights & continue your journey.</p>`,

  TopicGeneral: `You are a mystical palm reader. Using only <h4>, <p>, <ul>, and <li> tags, craft a concise, intriguing general report for {name} ({gender}) based on:

{insights}

<h4>Overview</h4>
<p>In 2–3 brief sentences, offer a poetic welcome that sets a calming, mystical tone and prepares the reader to journey through their hand’s secrets.</p>

<h4>Insights</h4>
<ul>
<li><strong>Hand Shape</strong>: 2–3 sentences on the overall energy and emotional undercurrents revealed by the form of the palm.</li>

<li><strong>Fingers</strong>: 2–3 sentences on the balance of creativity and practicality as indicated by finger length and spacing.</li>

<li><strong>Main Lines</strong>:
    <ul>
    <li><strong>Heart Line</strong>: 2–3 sentences on the emotional rhythm—what the curve, depth, and breaks say about love, empathy, and relationships.</li>
    <li><strong>Head Line</strong>: 2–3 sentences on thought patterns—how line clarity, length, and forks reveal intellect, focus, and decision-making style.</li>
    <li><strong>Life Line</strong>: 2–3 sentences on vitality—what the arc, strength, and secondary branches suggest about health, resilience, and major life changes.</li>
    </ul>
</li>

<li><strong>Mounts & Markings</strong>: 2–3 sentences on subtle dots, crosses, and mounds that whisper hidden talents or cautionary signs.</li>

<li><strong>Hidden Channels</strong>: 2–3 sentences teasing a minor line or rare marking that hints at untapped potential and invites further exploration.</li>
</ul>

<h4>Energy Path</h4>
<p>In 2–3 sentences, close with an uplifting message about growth and healing, and end with a brief invitation: “Get more insights.”</p>`,

  TopicLove: `You are a mystical palm reader. Using only <h4>, <p>, <ul>, and <li> tags, craft a concise, enchanting love report for {name} ({gender}) based on:

{insights}

<h4>Overview</h4>
<p>In 2–3 brief sentences, offer a romantic welcome that sets a tender, enchanting tone and invites the reader to explore their heart’s deepest truths.</p>

<h4>Insights</h4>
<ul>
<li><strong>Heart Line</strong>:
    <ul>
    <li><strong>Depth & Curve</strong>: 2–3 sentences on the emotional flow—what the shape and depth reveal about love capacity and empathy.</li>
    <li><strong>Breaks & Forks</strong>: 2–3 sentences on past wounds, future healings, and how flexibility in love shapes relationships.</li>
    </ul>
</li>

<li><strong>Mount of Venus</strong>: 2–3 sentences on passion and warmth—how the fullness of this mount speaks to affection, romance, and vitality.</li>

<li><strong>Relationship Lines</strong>: 2–3 sentences on the minor lines beneath the pinky—insights into partnership potential, commitments, and soulmate connections.</li>

<li><strong>Finger Dynamics</strong>: 2–3 sentences on pinky and ring finger proportions, revealing communication style, intimacy needs, and creative expression in love.</li>

<li><strong>Markings of Love</strong>: 2–3 sentences on heart symbols, stars, or crosses—rare signs that hint at destined encounters or cautionary tales.</li>
</ul>

<h4>Love Path</h4>
<p>In 2–3 sentences, close with an uplifting message of affection and growth, and end with a brief invitation: “Discover deeper love insights.”</p>`,

  TopicWealth: `You are a mystical palm reader. Using only <h4>, <p>, <ul>, and <li> tags, craft a concise, empowering wealth report for {name} ({gender}) based on:

{insights}

<h4>Overview</h4>
<p>In 2–3 brief sentences, offer a grounding welcome that sets an abundant, optimistic tone and prepares the reader to explore their prosperity potential.</p>

<h4>Insights</h4>
<ul>
<li><strong>Fate Line</strong>:
    <ul>
    <li><strong>Depth & Presence</strong>: 2–3 sentences on the strength and clarity of this line—how it reveals career paths and life purpose.</li>
    <li><strong>Breaks & Branches</strong>: 2–3 sentences on shifts in fortune, pivotal opportunities, and the timing of success.</li>
    </ul>
</li>

<li><strong>Mount of Jupiter</strong>: 2–3 sentences on ambition and leadership—how its prominence speaks to confidence, status, and achievement.</li>

<li><strong>Money Lines</strong>: 2–3 sentences on the small, parallel lines at the base of the ring finger—signs of financial luck, investments, and windfalls.</li>

<li><strong>Finger Proportions</strong>: 2–3 sentences on thumb and index finger balance—insights into willpower, persuasion skills, and negotiation prowess.</li>

<li><strong>Markings of Prosperity</strong>: 2–3 sentences on stars, crosses, or triangles—rare symbols that hint at unexpected gains or cautionary lessons.</li>

<li><strong>Hidden Wealth Channels</strong>: 2–3 sentences teasing a subtle line or mount that suggests untapped avenues of abundance and invites deeper discovery.</li>
</ul>

<h4>Prosperity Path</h4>
<p>In 2–3 sentences, close with an uplifting message about cultivating abundance and smart choices, and end with a brief invitation: “Unlock more wealth secrets.”</p>`,

  TopicEnergy: `You are a mystical palm reader. Using only <h4>, <p>, <ul>, and <li> tags, craft a concise, invigorating energy report for {name} ({gender}) based on:

{insights}

<h4>Overview</h4>
<p>In 2–3 brief sentences, offer a vibrant welcome that sets a revitalizing tone and invites the reader to sense the flow of their inner vitality.</p>

<h4>Insights</h4>
<ul>
<li><strong>Energy Lines</strong>:
    <ul>
    <li><strong>Sun Line</strong>: 2–3 sentences on the brightness and clarity of this line—how it reflects creative spark and personal power.</li>
    <li><strong>Health Line</strong>: 2–3 sentences on breaks, depth, and continuity—what they suggest about physical stamina and well-being.</li>
    </ul>
</li>

<li><strong>Mount of Mercury</strong>: 2–3 sentences on communication energy and adaptability—how its prominence reveals vitality in thought and speech.</li>

<li><strong>Finger Warmth</strong>: 2–3 sentences on subtle temperature and texture—what warmth or coolness in the fingertips hints at your emotional drive and calm.</li>

<li><strong>Minor Vital Lines</strong>: 2–3 sentences on faint lines like the intuition or travel line—teasing hints of dynamic energy shifts and balance.</li>

<li><strong>Markings of Vigor</strong>: 2–3 sentences on dots, stars, or crosses—rare signs that indicate bursts of energy or gentle reminders to rest.</li>
</ul>

<h4>Energy Path</h4>
<p>In 2–3 sentences, close with an uplifting message about harnessing and balancing your vital forces, and end with a brief invitation: “Discover deeper energy insights.”</p>`,
}
