package webapp

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Quiz Desk</title>
  <style>
    :root {
      --bg: radial-gradient(120% 120% at 15% 20%, rgba(0, 195, 255, 0.18), transparent 50%), #0f172a;
      --panel: rgba(255, 255, 255, 0.04);
      --panel-strong: rgba(255, 255, 255, 0.1);
      --text: #e2e8f0;
      --muted: #94a3b8;
      --accent: #22d3ee;
      --good: #34d399;
      --bad: #f43f5e;
      --radius: 18px;
      font-family: "Space Grotesk", "Segoe UI", "Helvetica Neue", sans-serif;
    }
    * { box-sizing: border-box; }
    body { margin: 0; min-height: 100vh; background: var(--bg); color: var(--text);
      display: flex; align-items: center; justify-content: center; padding: 32px 16px; }
    .shell { width: min(860px, 100%); background: var(--panel); border: 1px solid rgba(255,255,255,0.06);
      border-radius: var(--radius); padding: 28px; }
    header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px; }
    .title { font-size: 26px; font-weight: 700; }
    .badge { padding: 6px 12px; border-radius: 999px; background: var(--panel-strong); font-size: 14px; color: var(--muted); }
    .option { display: block; padding: 12px 14px; margin: 8px 0; border-radius: 12px;
      background: var(--panel-strong); cursor: pointer; }
    .option input { margin-right: 10px; }
    button, select { font: inherit; padding: 10px 16px; border-radius: 10px; border: 0; }
    button { background: var(--accent); color: #0f172a; font-weight: 600; cursor: pointer; }
    .ghost { background: transparent; color: var(--muted); border: 1px solid var(--panel-strong); }
    .feedback { margin-top: 16px; padding: 12px; border-radius: 12px; background: var(--panel-strong); }
    .good { color: var(--good); }
    .bad { color: var(--bad); }
    .hidden { display: none; }
    table { width: 100%; border-collapse: collapse; margin-top: 12px; }
    td, th { text-align: left; padding: 8px; border-bottom: 1px solid var(--panel-strong); }
    input[type=text], input[type=password], textarea { font: inherit; padding: 8px 10px; border-radius: 8px;
      border: 1px solid var(--panel-strong); background: transparent; color: var(--text); width: 100%; margin: 4px 0; }
    .row { display: flex; gap: 8px; align-items: center; }
    #admin { margin-top: 24px; border-top: 1px solid var(--panel-strong); padding-top: 16px; }
  </style>
</head>
<body>
<div class="shell">
  <header>
    <div class="title">Quiz Desk</div>
    <div class="badge" id="progress">No quiz</div>
  </header>

  <section id="picker">
    <p>Choose a category to begin.</p>
    <select id="categories"></select>
    <button id="start">Start</button>
    <p class="bad" id="picker-error"></p>
  </section>

  <section id="question" class="hidden">
    <h2 id="prompt"></h2>
    <p class="badge" id="hint"></p>
    <form id="options"></form>
    <button id="submit">Submit</button>
    <button id="next" class="hidden">Next</button>
    <div id="feedback" class="feedback hidden"></div>
  </section>

  <section id="summary" class="hidden">
    <h2 id="score"></h2>
    <table><thead><tr><th>#</th><th>Question</th><th>Your answer</th><th>Correct</th></tr></thead>
      <tbody id="rows"></tbody></table>
  </section>

  <p><button class="ghost" id="reset">Reset</button> <button class="ghost" id="admin-toggle">Admin</button></p>

  <section id="admin" class="hidden">
    <div id="admin-login" class="row">
      <input type="password" id="passphrase" placeholder="Admin password">
      <button id="login">Login</button>
    </div>
    <div id="admin-panel" class="hidden">
      <h3>Add category</h3>
      <div class="row"><input type="text" id="new-category" placeholder="Category name"><button id="add-category">Add</button></div>

      <h3 id="form-title">Add question</h3>
      <input type="text" id="q-category" placeholder="Category">
      <textarea id="q-text" rows="2" placeholder="Question"></textarea>
      <div id="q-options"></div>
      <label><input type="checkbox" id="q-multi"> Multiple choice</label>
      <textarea id="q-feedback" rows="2" placeholder="Feedback (optional)"></textarea>
      <div class="row"><button id="save-question">Save</button><button class="ghost" id="clear-form">Clear</button></div>

      <h3>Questions</h3>
      <table><thead><tr><th>ID</th><th>Category</th><th>Question</th><th></th></tr></thead>
        <tbody id="admin-rows"></tbody></table>
    </div>
    <p id="admin-msg"></p>
  </section>
</div>
<script>
const $ = (id) => document.getElementById(id);

async function api(path, body) {
  const opts = body === undefined ? {} : { method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify(body) };
  const res = await fetch(path, opts);
  const data = await res.json();
  if (!res.ok) throw new Error(data.error || res.statusText);
  return data;
}

function show(section) {
  for (const id of ["picker", "question", "summary"]) {
    $(id).classList.toggle("hidden", id !== section);
  }
}

async function loadCategories() {
  const data = await api("/api/categories");
  const sel = $("categories");
  sel.innerHTML = "";
  for (const name of data.categories || []) {
    const opt = document.createElement("option");
    opt.value = name;
    opt.textContent = name;
    sel.appendChild(opt);
  }
}

function renderQuestion(state) {
  const q = state.question;
  $("prompt").textContent = q.index + ". " + q.prompt;
  $("hint").textContent = q.multipleChoice ? "Select all that apply" : "Select one answer";
  const form = $("options");
  form.innerHTML = "";
  for (const opt of q.options) {
    const label = document.createElement("label");
    label.className = "option";
    const input = document.createElement("input");
    input.type = q.multipleChoice ? "checkbox" : "radio";
    input.name = "answer";
    input.value = opt.text;
    label.appendChild(input);
    label.appendChild(document.createTextNode(opt.letter + ". " + opt.text));
    form.appendChild(label);
  }
  $("feedback").classList.add("hidden");
  $("submit").classList.remove("hidden");
  $("next").classList.add("hidden");
}

function renderSummary(summary) {
  $("score").textContent = "Score: " + summary.score + "/" + summary.total + " (" + summary.percentage.toFixed(1) + "%)";
  const body = $("rows");
  body.innerHTML = "";
  for (const row of summary.rows) {
    const tr = document.createElement("tr");
    for (const text of [row.index, row.prompt, row.selected.join(", "), row.correctAnswers.join(", ")]) {
      const td = document.createElement("td");
      td.textContent = text;
      tr.appendChild(td);
    }
    tr.className = row.correct ? "good" : "bad";
    body.appendChild(tr);
  }
}

async function refresh() {
  const state = await api("/api/state");
  if (!state.active) {
    $("progress").textContent = "No quiz";
    show("picker");
    return loadCategories();
  }
  $("progress").textContent = state.category + " " + state.progress.answered + "/" + state.progress.total;
  if (state.finished) {
    show("summary");
    renderSummary(state.summary);
    return;
  }
  show("question");
  renderQuestion(state);
}

$("start").onclick = async () => {
  $("picker-error").textContent = "";
  try {
    await api("/api/quiz/start", { category: $("categories").value });
    await refresh();
  } catch (err) {
    $("picker-error").textContent = err.message;
  }
};

$("submit").onclick = async (ev) => {
  ev.preventDefault();
  const answers = Array.from(document.querySelectorAll("#options input:checked")).map((el) => el.value);
  const box = $("feedback");
  box.classList.remove("hidden");
  try {
    const res = await api("/api/answer", { answers });
    box.className = "feedback " + (res.correct ? "good" : "bad");
    box.textContent = (res.correct ? "Correct! " : "Incorrect. The correct answer(s): " + res.correctAnswers.join(", ") + ". ") + (res.feedback || "");
    $("submit").classList.add("hidden");
    $("next").classList.remove("hidden");
  } catch (err) {
    box.className = "feedback bad";
    box.textContent = err.message;
  }
};

$("next").onclick = (ev) => { ev.preventDefault(); refresh(); };
$("reset").onclick = async () => { await api("/api/reset", {}); refresh(); };

let adminPass = "";
let editingID = 0;

async function adminAPI(method, path, body) {
  const opts = { method, headers: { "X-Admin-Passphrase": adminPass } };
  if (body !== undefined) {
    opts.headers["Content-Type"] = "application/json";
    opts.body = JSON.stringify(body);
  }
  const res = await fetch(path, opts);
  const data = await res.json();
  if (!res.ok) throw new Error(data.error || res.statusText);
  return data;
}

function adminMessage(text, ok) {
  $("admin-msg").className = ok ? "good" : "bad";
  $("admin-msg").textContent = text;
}

function buildOptionInputs() {
  const box = $("q-options");
  box.innerHTML = "";
  for (const letter of ["A", "B", "C", "D"]) {
    const row = document.createElement("div");
    row.className = "row";
    const correct = document.createElement("input");
    correct.type = "checkbox";
    correct.id = "q-correct-" + letter;
    correct.title = "Correct answer";
    const text = document.createElement("input");
    text.type = "text";
    text.id = "q-opt-" + letter;
    text.placeholder = "Option " + letter;
    row.appendChild(correct);
    row.appendChild(text);
    box.appendChild(row);
  }
}

function clearForm() {
  editingID = 0;
  $("form-title").textContent = "Add question";
  for (const id of ["q-category", "q-text", "q-feedback"]) $(id).value = "";
  $("q-multi").checked = false;
  buildOptionInputs();
}

function fillForm(q) {
  editingID = q.id;
  $("form-title").textContent = "Edit question " + q.id;
  $("q-category").value = q.category;
  $("q-text").value = q.question;
  $("q-multi").checked = q.isMultipleChoice;
  $("q-feedback").value = q.feedback || "";
  ["A", "B", "C", "D"].forEach((letter, i) => {
    $("q-opt-" + letter).value = q.options[i];
    $("q-correct-" + letter).checked = q.answers.includes(q.options[i]);
  });
}

function readForm() {
  const options = [];
  const answers = [];
  for (const letter of ["A", "B", "C", "D"]) {
    const text = $("q-opt-" + letter).value.trim();
    options.push(text);
    if ($("q-correct-" + letter).checked) answers.push(text);
  }
  return {
    category: $("q-category").value.trim(),
    question: $("q-text").value,
    options,
    answers,
    isMultipleChoice: $("q-multi").checked,
    feedback: $("q-feedback").value,
  };
}

async function loadAdminQuestions() {
  const data = await adminAPI("GET", "/api/admin/questions");
  const body = $("admin-rows");
  body.innerHTML = "";
  for (const q of data.questions || []) {
    const tr = document.createElement("tr");
    for (const text of [q.id, q.category, q.question]) {
      const td = document.createElement("td");
      td.textContent = text;
      tr.appendChild(td);
    }
    const actions = document.createElement("td");
    const edit = document.createElement("button");
    edit.className = "ghost";
    edit.textContent = "Edit";
    edit.onclick = () => fillForm(q);
    const del = document.createElement("button");
    del.className = "ghost";
    del.textContent = "Delete";
    del.onclick = async () => {
      await adminAPI("DELETE", "/api/admin/questions/" + q.id);
      adminMessage("Question deleted.", true);
      loadAdminQuestions();
    };
    actions.appendChild(edit);
    actions.appendChild(del);
    tr.appendChild(actions);
    body.appendChild(tr);
  }
}

$("admin-toggle").onclick = () => $("admin").classList.toggle("hidden");

$("login").onclick = async () => {
  try {
    await api("/api/admin/login", { passphrase: $("passphrase").value });
    adminPass = $("passphrase").value;
    $("admin-login").classList.add("hidden");
    $("admin-panel").classList.remove("hidden");
    adminMessage("", true);
    clearForm();
    loadAdminQuestions();
  } catch (err) {
    adminMessage(err.message, false);
  }
};

$("add-category").onclick = async () => {
  try {
    await adminAPI("POST", "/api/admin/categories", { name: $("new-category").value });
    adminMessage("Category added.", true);
    $("new-category").value = "";
    loadCategories();
  } catch (err) {
    adminMessage(err.message, false);
  }
};

$("save-question").onclick = async () => {
  try {
    if (editingID) {
      await adminAPI("PUT", "/api/admin/questions/" + editingID, readForm());
      adminMessage("Question updated.", true);
    } else {
      await adminAPI("POST", "/api/admin/questions", readForm());
      adminMessage("Question added.", true);
    }
    clearForm();
    loadAdminQuestions();
  } catch (err) {
    adminMessage(err.message, false);
  }
};

$("clear-form").onclick = clearForm;

refresh();
</script>
</body>
</html>`
