package extract

// Instruction is the system instruction for the extraction model. The
// model is known to emit occasionally malformed JSON, so a large part of
// the text constrains the output format.
const Instruction = `As an expert in document entity extraction, your task is to analyze a provided question paper in either PDF
format or plain text format and extract key entities into a structured format referring the specified schema below. The extracted entities should be
accurate, well-organized, and aligned with the document's content. Ensure that every part of the question paper is parsed appropriately, with
all relevant fields captured. Try to analyze the number of sections and number of questions in each section and then collect the data. Make sure
the "response" being returned is in a strict JSON format only with double quotes for required key value pairs.
An Example of the Response that needs to be returned referring to Response Schema:
{
  "title": "HINDUSTANI MUSIC Melodic Instrument",
  "type": "sample_paper",
  "time": 120,
  "marks": 30,
  "params": {
    "board": null,
    "grade": 10,
    "subject": "Hindustani Music"
  },
  "tags": ["Raga", "Taal", "Melodic Instruments"],
  "chapters": [],
  "sections": [
    {
      "marks_per_question": 1,
      "type": "default",
      "questions": [
        {
          "question": "Name the taal :\n1. Tilwada\n2. Teentaal\n3. Rupak\n4. Dadra",
          "answer": "2",
          "type": "mcq",
          "question_slug": "name-the-taal",
          "reference_id": null,
          "hint": null,
          "params": {}
        }
      ]
    },
    {
      "marks_per_question": 6,
      "type": "default",
      "questions": [
        {
          "question": "Describe the salient features of Raga Bhupali.\n(OR)\nDefine Alaap and Taan with illustrations.",
          "answer": null,
          "type": "descriptive",
          "question_slug": "describe-the-salient-features-of-raga-bhupali",
          "reference_id": null,
          "hint": null,
          "params": {}
        }
      ]
    }
  ]
}
Carefully learn the above schema and return response in the same format only.
Guidelines for Entity Extraction:
The question paper can be in different languages. Process it accordingly.
Title: Extract the title of the question paper.
Type: Identify the type of the paper (e.g., "previous_year", "sample_paper", "current_year").
Time: Extract the allotted time for completing the paper (in minutes).
Marks: Extract the total marks for the paper.
Params: Capture details such as the education board, grade level, and subject if present, else mark it None.
Identify different sections which are mostly given in the beginning.
Tags: Identify the key topics or areas (tags) covered by the paper (e.g., "algebra", "geometry").
Chapters: Extract the chapters that are part of the question paper (e.g., "Quadratic Equations").
Sections: Identify the sections, and for each section:
  Identify the number of questions.
  There might be specific marks for questions in each section.
  Extract the number of marks per question.
  Extract the type of section (e.g., "default", "optional").
  Go through the sections strictly as they might be marked as 'A','B','C','D','E' and so on or 'I','II','III','IV','V' and so on.
  Every section needs to be captured. Chances are first section will always be a MCQ.
  Avoid duplicate key errors due to missing "{}" brackets or ',' delimiters.
  For each question in the section:
    There might be 2 different questions in a single question separated by 'OR'. Consider both of them in a single question object creating nested questions.
    Refer to the marks for the question in this section.
    Extract the full question text only. Ignore any picture or figure.
    Extract the correct answer to the question if it is an 'MCQ' else just put "Need to be solved.".
    Identify the type of question (e.g., "short", "long").
    Generate a question slug (a URL-friendly version of the question text of maximum 5 words only).
    Extract the reference ID for the question (if provided).
    Provide a helpful hint for solving the question.
    Extract any additional parameters relevant to the question.
Make sure to clean the response before returning, replace any HTML tags with specific characters to avoid json parsing issue.
Ensure that the output adheres strictly to the schema format.
Incase of json formatting errors in the response text, fix it and then return the response.
Finally please review the JSON response you provided.
Ensure there are no missing commas and brackets, which are causing errors
in validation like duplicate keys as the bracket are not closed. Specifically, the response should have properly closed objects and arrays.`

// Prompt accompanies each generation request alongside the paper content.
const Prompt = `Please extract the relevant information from the attached question paper, and return the
data strictly in valid JSON format.
Ensure the following:
1. Replace all newline characters (e.g., '\n') with appropriate spaces to maintain JSON formatting.
2. Ensure that all keys and string values are enclosed in double quotes, and that commas are properly placed between key-value pairs.
3. Ensure proper closing brackets, and add commas wherever necessary.
4. Ensure there are no syntax errors like missing commas, missing quotes, brackets or other formatting issues.
5. The final output must be error-free and a valid JSON that can be parsed without issues according to the schema in the system instruction.`
