package sqlinline

const QInsertSubmission = `--sql 3c8f41d2-7a6e-4b19-9c5d-2e8f0a1b4c6d
insert into submissions(
  id,
  submission_key,
  email,
  prompt,
  status,
  created_at
) values ($1::uuid, $2::text, $3::text, $4::text, $5::text, now())
returning created_at;
`

const QCompleteSubmission = `--sql 9b2d5e7f-1c3a-4f68-8d9e-5a7b0c2d4e6f
update submissions
set status = $2::text,
    image_url = $3::text,
    image_stage = $4::text,
    plan_pdf_url = $5::text,
    completed_at = now()
where id = $1::uuid;
`

const QSelectSubmissionByKey = `--sql 4e6a8c1b-3d5f-4a72-b1c9-7e9d2f4a6b8c
select id, submission_key, email, prompt, status, image_url, image_stage, plan_pdf_url, created_at, completed_at
from submissions
where submission_key = $1::text
limit 1;
`
